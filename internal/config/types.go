package config

import "time"

type Config struct {
	UploadDir    string
	DatabasePath string
	Timezone     string

	LLM     LLMConfig
	Caption CaptionConfig

	Telegram TelegramConfig
	Discord  DiscordConfig

	Auth AuthConfig
	HTTP HTTPConfig

	Storage StorageConfig

	MediaGroupDelay time.Duration
	SweepSchedule   string
	SweepMaxAge     time.Duration
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

type CaptionConfig struct {
	PromptFile string
	MaxTokens  int
}

type TelegramConfig struct {
	Token   string
	Channel string // numeric chat ID or @channelname
}

type DiscordConfig struct {
	Enabled   bool
	Token     string
	ChannelID string
}

type AuthConfig struct {
	JWTSecret     string
	RefreshSecret string
	SetupKey      string
}

type HTTPConfig struct {
	Port int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}
