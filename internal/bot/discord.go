package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bowerhall/autopost/internal/logger"
	"github.com/bwmarrin/discordgo"
)

// Discord cross-posts published drafts to a Discord channel. Send-only:
// it talks to the REST API and never opens a gateway connection.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Announce(_ context.Context, photoPath, caption string) error {
	f, err := os.Open(photoPath)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	_, err = d.session.ChannelMessageSendComplex(d.channelID, &discordgo.MessageSend{
		Content: caption,
		Files: []*discordgo.File{
			{
				Name:   filepath.Base(photoPath),
				Reader: f,
			},
		},
	})
	if err != nil {
		logger.Error("discord announce failed", "error", err, "channelID", d.channelID)
		return err
	}

	logger.Info("discord announce sent", "channelID", d.channelID)
	return nil
}
