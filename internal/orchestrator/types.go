package orchestrator

import (
	"context"

	"github.com/bowerhall/autopost/internal/mediagroup"
)

type EventKind int

const (
	KindCommand EventKind = iota
	KindText
	KindPhoto
	KindAction
	KindOther
)

// Event is one normalized inbound update from the transport.
type Event struct {
	UserID int64
	ChatID int64
	Kind   EventKind

	// KindCommand
	Command string

	// KindText
	Text string

	// KindPhoto
	MediaGroupID string
	Photos       []mediagroup.Photo
	Caption      string

	// KindAction
	ActionID string // transport callback ID, used to acknowledge
	Action   string // "publish" or "regenerate"
}

// Responder is the outbound surface the orchestrator replies through.
type Responder interface {
	Reply(chatID int64, text string) error
	// ReplyDraft sends the photo and generated caption with the
	// approve/regenerate controls attached.
	ReplyDraft(chatID int64, photoPath, caption string) error
	AnswerAction(actionID, text string) error
}

// Verifier checks the operator credential. Implementations fail closed.
type Verifier interface {
	Verify(ctx context.Context, login, password string) bool
}

// CaptionGenerator rewrites a raw description into publishable copy.
type CaptionGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fetcher downloads a transport file reference to local storage.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) (string, error)
}
