package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bowerhall/autopost/internal/llm"
)

func Load() (*Config, error) {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	dbPath := os.Getenv("AUTOPOST_DB")
	if dbPath == "" {
		dbPath = "autopost.db"
	}

	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	telegramConfig, err := loadTelegramConfig()
	if err != nil {
		return nil, err
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		UploadDir:       uploadDir,
		DatabasePath:    dbPath,
		Timezone:        timezone,
		LLM:             llmConfig,
		Caption:         loadCaptionConfig(),
		Telegram:        telegramConfig,
		Discord:         loadDiscordConfig(),
		Auth:            authConfig,
		HTTP:            loadHTTPConfig(),
		Storage:         loadStorageConfig(),
		MediaGroupDelay: loadMediaGroupDelay(),
		SweepSchedule:   loadSweepSchedule(),
		SweepMaxAge:     loadSweepMaxAge(),
	}, nil
}

func loadTelegramConfig() (TelegramConfig, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return TelegramConfig{}, fmt.Errorf("TELEGRAM_TOKEN not set")
	}

	channel := os.Getenv("TELEGRAM_CHANNEL_ID")
	if channel == "" {
		return TelegramConfig{}, fmt.Errorf("TELEGRAM_CHANNEL_ID not set")
	}

	return TelegramConfig{
		Token:   token,
		Channel: channel,
	}, nil
}

func loadDiscordConfig() DiscordConfig {
	token := os.Getenv("DISCORD_TOKEN")
	channelID := os.Getenv("DISCORD_CHANNEL_ID")

	return DiscordConfig{
		Enabled:   token != "" && channelID != "",
		Token:     token,
		ChannelID: channelID,
	}
}

func loadAuthConfig() (AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("JWT_SECRET not set")
	}

	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if refreshSecret == "" {
		refreshSecret = secret
	}

	return AuthConfig{
		JWTSecret:     secret,
		RefreshSecret: refreshSecret,
		SetupKey:      os.Getenv("SETUP_KEY"),
	}, nil
}

func loadHTTPConfig() HTTPConfig {
	port := 7000
	if p, err := strconv.Atoi(os.Getenv("HTTP_PORT")); err == nil && p > 0 {
		port = p
	}

	return HTTPConfig{Port: port}
}

func loadCaptionConfig() CaptionConfig {
	maxTokens := 600
	if n, err := strconv.Atoi(os.Getenv("MAX_TOKENS")); err == nil && n > 0 {
		maxTokens = n
	}

	return CaptionConfig{
		PromptFile: os.Getenv("CAPTION_PROMPT_FILE"),
		MaxTokens:  maxTokens,
	}
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}
}

func loadMediaGroupDelay() time.Duration {
	// debounce window for multi-photo albums, anchored at first arrival
	if ms, err := strconv.Atoi(os.Getenv("MEDIA_GROUP_DELAY_MS")); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 700 * time.Millisecond
}

func loadSweepSchedule() string {
	schedule := os.Getenv("SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "@hourly"
	}
	return schedule
}

func loadSweepMaxAge() time.Duration {
	if h, err := strconv.Atoi(os.Getenv("SWEEP_MAX_AGE_HOURS")); err == nil && h > 0 {
		return time.Duration(h) * time.Hour
	}
	return 24 * time.Hour
}

func loadLLMConfig() (LLMConfig, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "deepseek"
	}

	if !llm.IsKnownProvider(provider) {
		return LLMConfig{}, fmt.Errorf("unknown LLM provider: %s", provider)
	}

	apiKey, err := getAPIKey(provider)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	}, nil
}

func getAPIKey(provider string) (string, error) {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key, nil
	}

	switch provider {
	case "claude":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return key, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		return key, nil
	default:
		// convention: {PROVIDER}_API_KEY (e.g. DEEPSEEK_API_KEY, OPENROUTER_API_KEY)
		key := os.Getenv(strings.ToUpper(provider) + "_API_KEY")
		if key == "" {
			return "", fmt.Errorf("%s_API_KEY not set", strings.ToUpper(provider))
		}
		return key, nil
	}
}
