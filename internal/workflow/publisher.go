package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bowerhall/autopost/internal/logger"
	"github.com/bowerhall/autopost/internal/session"
)

var ErrNothingPending = errors.New("nothing to publish")

// Broadcaster sends the approved draft to the fixed destination channel.
type Broadcaster interface {
	Publish(ctx context.Context, photoPath, caption string) error
}

// CaptionGenerator rewrites the operator's caption into publishable copy.
type CaptionGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Archiver keeps a copy of published posts. Optional; failures never block
// a publish.
type Archiver interface {
	Archive(ctx context.Context, photoPath, caption string) error
}

// Announcer cross-posts published drafts to a secondary channel. Optional.
type Announcer interface {
	Announce(ctx context.Context, photoPath, caption string) error
}

// Publisher drives the draft lifecycle: regenerate until the operator is
// happy, then publish and clean up. Callers hold the session's handling
// lock for the duration of each call.
type Publisher struct {
	broadcaster Broadcaster
	captions    CaptionGenerator
	archiver    Archiver
	announcer   Announcer
}

func NewPublisher(broadcaster Broadcaster, captions CaptionGenerator) *Publisher {
	return &Publisher{
		broadcaster: broadcaster,
		captions:    captions,
	}
}

func (p *Publisher) SetArchiver(a Archiver) { p.archiver = a }
func (p *Publisher) SetAnnouncer(a Announcer) { p.announcer = a }

// Publish sends the pending draft to the channel. On transport failure the
// draft and its local file stay intact so the operator can retry; on
// success both are released.
func (p *Publisher) Publish(ctx context.Context, sess *session.Session) error {
	draft := sess.Pending
	if draft == nil {
		return ErrNothingPending
	}

	if err := p.broadcaster.Publish(ctx, draft.PhotoPath, draft.GeneratedText); err != nil {
		return fmt.Errorf("publish to channel: %w", err)
	}

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, draft.PhotoPath, draft.GeneratedText); err != nil {
			logger.Error("archive failed", "error", err, "user", sess.UserID)
		}
	}

	if p.announcer != nil {
		if err := p.announcer.Announce(ctx, draft.PhotoPath, draft.GeneratedText); err != nil {
			logger.Error("announce failed", "error", err, "user", sess.UserID)
		}
	}

	if err := os.Remove(draft.PhotoPath); err != nil {
		logger.Warn("could not remove published photo", "path", draft.PhotoPath, "error", err)
	}

	sess.Pending = nil
	logger.Info("draft published", "user", sess.UserID)
	return nil
}

// Regenerate rewrites the draft copy from the stored original caption. The
// photo reference never changes; on generator failure the previous text is
// kept and the draft stays usable.
func (p *Publisher) Regenerate(ctx context.Context, sess *session.Session) (string, error) {
	draft := sess.Pending
	if draft == nil {
		return "", ErrNothingPending
	}

	text, err := p.captions.Generate(ctx, draft.Caption)
	if err != nil {
		return "", err
	}

	draft.GeneratedText = text
	logger.Info("draft regenerated", "user", sess.UserID)
	return text, nil
}
