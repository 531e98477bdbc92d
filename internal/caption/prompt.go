package caption

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultSystemPrompt turns a raw vehicle description into listing copy
// ready for the channel. Overridable via a YAML prompt file.
const defaultSystemPrompt = `You are a professional copywriter producing car listings for a sales channel.

Goal: turn a plain technical description of a vehicle into vivid, persuasive
ad copy that makes readers want to buy. Keep every fact, but present it with
energy.

Structure:
1. A bold headline with the model, standout features, and price.
2. A short intro with the car's story (one owner, real mileage, garage kept,
   reason for sale).
3. A bulleted list of options and selling points.
4. A call to action stressing urgency or uniqueness.

Style: concise and punchy, action verbs, tasteful emoji. Avoid dry
enumeration. Even a reader with no car knowledge should see why this one is
worth it.`

type promptFile struct {
	System string `yaml:"system"`
}

// LoadPrompt reads the system prompt from a YAML file. An empty path
// returns the built-in default.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("parse prompt file: %w", err)
	}

	if pf.System == "" {
		return "", fmt.Errorf("prompt file %s has no system prompt", path)
	}

	return pf.System, nil
}
