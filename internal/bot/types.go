package bot

import (
	"context"

	"github.com/bowerhall/autopost/internal/orchestrator"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventHandler consumes normalized inbound events. The orchestrator
// satisfies it.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev orchestrator.Event)
}

// Telegram is the operator-facing transport: it feeds updates to the
// handler and carries every outbound surface (replies, draft renders,
// channel publishing, file resolution).
type Telegram struct {
	api *tgbotapi.BotAPI

	// broadcast destination: either a numeric chat ID or a @channelname
	channelChatID   int64
	channelUsername string
}
