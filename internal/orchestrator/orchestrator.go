package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/bowerhall/autopost/internal/logger"
	"github.com/bowerhall/autopost/internal/mediagroup"
	"github.com/bowerhall/autopost/internal/session"
	"github.com/bowerhall/autopost/internal/workflow"
)

const (
	msgWelcome        = "👋 Welcome! Please enter your login:"
	msgLoginPrompt    = "❗ Please enter your login:"
	msgLoginAsText    = "Please type your login as text."
	msgPasswordPrompt = "Enter your password:"
	msgPasswordAsText = "Please type your password as text."
	msgAuthSuccess    = "✅ Logged in! Send a vehicle description with a photo attached 🚗📸"
	msgAuthFailed     = "❌ Invalid login or password. Try again.\nEnter your login:"
	msgAuthRequired   = "❗ Please log in first. Use /start to begin."
	msgHelp           = "Send a photo with a description attached and I'll draft a post for the channel."
	msgNothingPending = "Nothing to publish."
	msgPublishing     = "Publishing..."
	msgRegenerating   = "Regenerating..."
	msgPublished      = "✅ Published to the channel. Send another photo and description below!"
	msgPublishFailed  = "⚠️ Could not publish right now. Your draft is kept, try again."
	msgFetchFailed    = "⚠️ Could not download the photo. Please send it again."
	msgCaptionFailed  = "⚠️ Could not generate a caption. Please send the photo again."
	msgRegenFailed    = "⚠️ Could not regenerate. The previous caption is kept."
	msgUnknownAction  = "Unknown action."
	msgNoPhoto        = "No usable photo in that message."
)

// finalizeTimeout bounds the work done after an album's quiet window
// closes (download + caption generation).
const finalizeTimeout = 2 * time.Minute

// Orchestrator turns the unordered stream of per-user events into ordered
// state transitions. Events for one user are serialized on the session's
// handling lock; events for different users interleave freely.
type Orchestrator struct {
	sessions  *session.Store
	groups    *mediagroup.Aggregator
	publisher *workflow.Publisher

	verifier  Verifier
	captions  CaptionGenerator
	fetcher   Fetcher
	responder Responder
}

type Config struct {
	Verifier        Verifier
	Captions        CaptionGenerator
	Fetcher         Fetcher
	Responder       Responder
	Publisher       *workflow.Publisher
	MediaGroupDelay time.Duration
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		sessions:  session.NewStore(),
		publisher: cfg.Publisher,
		verifier:  cfg.Verifier,
		captions:  cfg.Captions,
		fetcher:   cfg.Fetcher,
		responder: cfg.Responder,
	}

	delay := cfg.MediaGroupDelay
	if delay <= 0 {
		delay = 700 * time.Millisecond
	}
	o.groups = mediagroup.NewAggregator(delay, o.finalizeGroup)

	return o
}

// Sessions exposes the session store for read-side collaborators (the
// upload sweeper checks which files live drafts still reference).
func (o *Orchestrator) Sessions() *session.Store {
	return o.sessions
}

// HandleEvent is the single inbound entry point. Dispatch order: restart
// first, then the authentication gate, then content handlers.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev Event) {
	sess := o.sessions.Get(ev.UserID)
	sess.Lock()
	defer sess.Unlock()

	if ev.ChatID != 0 {
		sess.ChatID = ev.ChatID
	}

	if ev.Kind == KindCommand && ev.Command == "start" {
		o.restart(sess)
		return
	}

	if !o.sessions.IsAuthenticated(ev.UserID) {
		o.handleChallenge(ctx, sess, ev)
		return
	}

	switch ev.Kind {
	case KindPhoto:
		o.handlePhoto(ctx, sess, ev)
	case KindAction:
		o.handleAction(ctx, sess, ev)
	default:
		o.reply(sess.ChatID, msgHelp)
	}
}

// restart resets the user to a fresh awaiting-login state: pending album
// buffers are cancelled, the draft photo is released, and authenticated
// membership is dropped.
func (o *Orchestrator) restart(sess *session.Session) {
	if dropped := o.groups.CancelUser(sess.UserID); dropped > 0 {
		logger.Debug("cancelled pending albums", "user", sess.UserID, "count", dropped)
	}

	if prev := o.sessions.Reset(sess.UserID); prev != nil {
		removeDraftFile(prev.PhotoPath)
	}

	logger.Info("session reset", "user", sess.UserID)
	o.reply(sess.ChatID, msgWelcome)
}

// handleChallenge is the authentication state machine. It owns every event
// from an unauthenticated user.
func (o *Orchestrator) handleChallenge(ctx context.Context, sess *session.Session, ev Event) {
	if ev.Kind == KindAction {
		o.answer(ev.ActionID, msgAuthRequired)
		return
	}

	switch sess.State {
	case session.StateNew:
		// first contact: prompt for the login, never record this
		// message as one
		sess.State = session.StateAwaitingLogin
		o.reply(sess.ChatID, msgLoginPrompt)

	case session.StateAwaitingLogin:
		if ev.Kind != KindText || ev.Text == "" {
			o.reply(sess.ChatID, msgLoginAsText)
			return
		}

		sess.PendingLogin = ev.Text
		sess.State = session.StateAwaitingPassword
		o.reply(sess.ChatID, msgPasswordPrompt)

	case session.StateAwaitingPassword:
		if ev.Kind != KindText || ev.Text == "" {
			o.reply(sess.ChatID, msgPasswordAsText)
			return
		}

		login := sess.PendingLogin
		if o.verifier.Verify(ctx, login, ev.Text) {
			sess.PendingLogin = ""
			sess.State = session.StateAuthenticated
			o.sessions.Authenticate(sess.UserID)
			logger.Info("operator authenticated", "user", sess.UserID)
			o.reply(sess.ChatID, msgAuthSuccess)
			// verification consumes the turn; never fall through
			return
		}

		sess.PendingLogin = ""
		sess.State = session.StateAwaitingLogin
		logger.Warn("authentication failed", "user", sess.UserID, "login", login)
		o.reply(sess.ChatID, msgAuthFailed)

	default:
		// stale record without set membership; start over defensively
		sess.State = session.StateAwaitingLogin
		sess.PendingLogin = ""
		o.reply(sess.ChatID, msgLoginPrompt)
	}
}

func (o *Orchestrator) handlePhoto(ctx context.Context, sess *session.Session, ev Event) {
	if len(ev.Photos) == 0 {
		o.reply(sess.ChatID, msgNoPhoto)
		return
	}

	if ev.MediaGroupID != "" {
		o.groups.Add(ev.MediaGroupID, ev.UserID, sess.ChatID, ev.Photos, ev.Caption)
		return
	}

	o.finalizeSubmission(ctx, sess, sess.ChatID, ev.Photos, ev.Caption)
}

// finalizeGroup runs when an album's quiet window closes. The session may
// have been reset while the timer was pending; in that case the album is
// dropped.
func (o *Orchestrator) finalizeGroup(g *mediagroup.Group) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	sess := o.sessions.Get(g.UserID)
	sess.Lock()
	defer sess.Unlock()

	if !o.sessions.IsAuthenticated(g.UserID) {
		logger.Debug("album dropped, user no longer authenticated", "group", g.ID, "user", g.UserID)
		return
	}

	o.finalizeSubmission(ctx, sess, g.ChatID, g.Photos, g.Caption)
}

// finalizeSubmission turns an accumulated photo set into a draft: pick the
// best variant, download it, generate the caption, store the draft, and
// show it with the approve/regenerate controls.
func (o *Orchestrator) finalizeSubmission(ctx context.Context, sess *session.Session, chatID int64, photos []mediagroup.Photo, caption string) {
	best, ok := mediagroup.BestPhoto(photos)
	if !ok {
		o.reply(chatID, msgNoPhoto)
		return
	}

	path, err := o.fetcher.Fetch(ctx, best.FileID)
	if err != nil {
		logger.Error("photo fetch failed", "error", err, "user", sess.UserID)
		o.reply(chatID, msgFetchFailed)
		return
	}

	text, err := o.captions.Generate(ctx, caption)
	if err != nil {
		removeDraftFile(path)
		o.reply(chatID, msgCaptionFailed)
		return
	}

	// a new submission replaces any unpublished draft
	if sess.Pending != nil {
		removeDraftFile(sess.Pending.PhotoPath)
	}

	sess.Pending = &session.Submission{
		PhotoPath:     path,
		Caption:       caption,
		GeneratedText: text,
	}

	if err := o.responder.ReplyDraft(chatID, path, text); err != nil {
		logger.Error("draft reply failed", "error", err, "user", sess.UserID)
	}
}

func (o *Orchestrator) handleAction(ctx context.Context, sess *session.Session, ev Event) {
	if sess.Pending == nil {
		o.answer(ev.ActionID, msgNothingPending)
		return
	}

	switch ev.Action {
	case "publish":
		o.answer(ev.ActionID, msgPublishing)

		if err := o.publisher.Publish(ctx, sess); err != nil {
			logger.Error("publish failed", "error", err, "user", sess.UserID)
			o.reply(sess.ChatID, msgPublishFailed)
			return
		}

		o.reply(sess.ChatID, msgPublished)

	case "regenerate":
		o.answer(ev.ActionID, msgRegenerating)

		text, err := o.publisher.Regenerate(ctx, sess)
		if err != nil {
			logger.Error("regenerate failed", "error", err, "user", sess.UserID)
			o.reply(sess.ChatID, msgRegenFailed)
			return
		}

		if err := o.responder.ReplyDraft(sess.ChatID, sess.Pending.PhotoPath, text); err != nil {
			logger.Error("draft reply failed", "error", err, "user", sess.UserID)
		}

	default:
		o.answer(ev.ActionID, msgUnknownAction)
	}
}

func (o *Orchestrator) reply(chatID int64, text string) {
	if err := o.responder.Reply(chatID, text); err != nil {
		logger.Error("reply failed", "error", err, "chatID", chatID)
	}
}

func (o *Orchestrator) answer(actionID, text string) {
	if err := o.responder.AnswerAction(actionID, text); err != nil {
		logger.Error("action answer failed", "error", err)
	}
}

func removeDraftFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not remove draft photo", "path", path, "error", err)
	}
}
