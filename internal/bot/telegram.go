package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/bowerhall/autopost/internal/logger"
	"github.com/bowerhall/autopost/internal/mediagroup"
	"github.com/bowerhall/autopost/internal/orchestrator"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func NewTelegram(token, channel string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	t := &Telegram{api: api}

	if strings.HasPrefix(channel, "@") {
		t.channelUsername = channel
	} else {
		id, err := strconv.ParseInt(channel, 10, 64)
		if err != nil {
			return nil, err
		}
		t.channelChatID = id
	}

	return t, nil
}

func (t *Telegram) Start(ctx context.Context, handler EventHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	logger.Info("telegram bot started", "account", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			ev, ok := t.translate(update)
			if !ok {
				continue
			}

			go handler.HandleEvent(ctx, ev)
		}
	}
}

// translate normalizes a raw update into an orchestrator event.
func (t *Telegram) translate(update tgbotapi.Update) (orchestrator.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		ev := orchestrator.Event{
			UserID:   cq.From.ID,
			Kind:     orchestrator.KindAction,
			ActionID: cq.ID,
			Action:   cq.Data,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
		}
		logger.Debug("callback received", "user", ev.UserID, "action", ev.Action)
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return orchestrator.Event{}, false
	}

	ev := orchestrator.Event{
		UserID: msg.From.ID,
		ChatID: msg.Chat.ID,
	}

	switch {
	case msg.IsCommand():
		ev.Kind = orchestrator.KindCommand
		ev.Command = msg.Command()
	case len(msg.Photo) > 0:
		ev.Kind = orchestrator.KindPhoto
		ev.MediaGroupID = msg.MediaGroupID
		ev.Caption = msg.Caption
		for _, p := range msg.Photo {
			ev.Photos = append(ev.Photos, mediagroup.Photo{
				FileID:   p.FileID,
				FileSize: p.FileSize,
				Width:    p.Width,
				Height:   p.Height,
			})
		}
		logger.Info("photo received", "user", ev.UserID, "album", ev.MediaGroupID, "caption", truncate(ev.Caption, 50))
	case msg.Text != "":
		ev.Kind = orchestrator.KindText
		ev.Text = msg.Text
	default:
		ev.Kind = orchestrator.KindOther
	}

	return ev, true
}

func (t *Telegram) Reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		logger.Error("reply failed", "error", err, "chatID", chatID)
		return err
	}
	return nil
}

// ReplyDraft shows the downloaded photo and generated copy with the
// approve/regenerate controls.
func (t *Telegram) ReplyDraft(chatID int64, photoPath, caption string) error {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(photoPath))
	msg.Caption = clampCaption(caption)
	msg.ReplyMarkup = draftKeyboard()

	if _, err := t.api.Send(msg); err != nil {
		logger.Error("draft send failed", "error", err, "chatID", chatID)
		return err
	}

	logger.Info("draft sent", "chatID", chatID, "caption", truncate(caption, 50))
	return nil
}

func (t *Telegram) AnswerAction(actionID, text string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(actionID, text)); err != nil {
		logger.Error("callback answer failed", "error", err)
		return err
	}
	return nil
}

// Publish sends the approved draft to the broadcast channel.
func (t *Telegram) Publish(_ context.Context, photoPath, caption string) error {
	var msg tgbotapi.PhotoConfig
	if t.channelUsername != "" {
		msg = tgbotapi.NewPhotoToChannel(t.channelUsername, tgbotapi.FilePath(photoPath))
	} else {
		msg = tgbotapi.NewPhoto(t.channelChatID, tgbotapi.FilePath(photoPath))
	}
	msg.Caption = clampCaption(caption)

	if _, err := t.api.Send(msg); err != nil {
		logger.Error("channel publish failed", "error", err)
		return err
	}

	logger.Info("published to channel", "channel", t.channelName())
	return nil
}

// FileURL resolves a file ID to its download link for the media fetcher.
func (t *Telegram) FileURL(fileID string) (string, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", err
	}

	return file.Link(t.api.Token), nil
}

func (t *Telegram) channelName() string {
	if t.channelUsername != "" {
		return t.channelUsername
	}
	return strconv.FormatInt(t.channelChatID, 10)
}

func draftKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Publish", "publish"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", "regenerate"),
		),
	)
}
