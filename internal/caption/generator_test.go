package caption

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bowerhall/autopost/internal/llm"
)

type fakeLLM struct {
	reply      string
	err        error
	lastSystem string
	lastPrompt string
}

func (f *fakeLLM) Chat(_ context.Context, systemPrompt string, messages []llm.Message) (string, error) {
	f.lastSystem = systemPrompt
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	return f.reply, f.err
}

func TestGenerate(t *testing.T) {
	model := &fakeLLM{reply: "  Shiny sedan, one owner!  "}
	gen := NewGenerator(model, "")

	text, err := gen.Generate(context.Background(), "2020 sedan, 30k km")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if text != "Shiny sedan, one owner!" {
		t.Errorf("expected trimmed reply, got %q", text)
	}

	if model.lastSystem != defaultSystemPrompt {
		t.Error("expected default system prompt")
	}

	if model.lastPrompt != "2020 sedan, 30k km" {
		t.Errorf("prompt mismatch: %q", model.lastPrompt)
	}
}

func TestGenerateEmptyPromptGetsPlaceholder(t *testing.T) {
	model := &fakeLLM{reply: "ok"}
	gen := NewGenerator(model, "")

	if _, err := gen.Generate(context.Background(), "   "); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if model.lastPrompt == "" || model.lastPrompt == "   " {
		t.Errorf("expected placeholder prompt, got %q", model.lastPrompt)
	}
}

func TestGenerateError(t *testing.T) {
	model := &fakeLLM{err: fmt.Errorf("api down")}
	gen := NewGenerator(model, "custom prompt")

	if _, err := gen.Generate(context.Background(), "desc"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	model := &fakeLLM{reply: "   "}
	gen := NewGenerator(model, "")

	if _, err := gen.Generate(context.Background(), "desc"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yml")

	if err := os.WriteFile(path, []byte("system: |\n  be brief\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	prompt, err := LoadPrompt(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if prompt != "be brief\n" {
		t.Errorf("unexpected prompt: %q", prompt)
	}
}

func TestLoadPromptDefault(t *testing.T) {
	prompt, err := LoadPrompt("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if prompt != defaultSystemPrompt {
		t.Error("expected built-in default")
	}
}

func TestLoadPromptMissingSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yml")

	if err := os.WriteFile(path, []byte("other: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPrompt(path); err == nil {
		t.Fatal("expected error for missing system prompt")
	}
}
