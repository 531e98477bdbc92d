package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bowerhall/autopost/internal/session"
)

type fakeBroadcaster struct {
	err   error
	sends int
	path  string
	text  string
}

func (f *fakeBroadcaster) Publish(_ context.Context, photoPath, caption string) error {
	if f.err != nil {
		return f.err
	}
	f.sends++
	f.path = photoPath
	f.text = caption
	return nil
}

type fakeCaptions struct {
	reply string
	err   error
}

func (f *fakeCaptions) Generate(context.Context, string) (string, error) {
	return f.reply, f.err
}

type fakeArchiver struct {
	err   error
	calls int
}

func (f *fakeArchiver) Archive(context.Context, string, string) error {
	f.calls++
	return f.err
}

func draftSession(t *testing.T) (*session.Session, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	return &session.Session{
		UserID: 42,
		State:  session.StateAuthenticated,
		Pending: &session.Submission{
			PhotoPath:     path,
			Caption:       "2020 sedan",
			GeneratedText: "Buy this sedan!",
		},
	}, path
}

func TestPublish(t *testing.T) {
	sess, path := draftSession(t)
	bc := &fakeBroadcaster{}
	pub := NewPublisher(bc, &fakeCaptions{})

	if err := pub.Publish(context.Background(), sess); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if bc.sends != 1 || bc.text != "Buy this sedan!" {
		t.Errorf("unexpected send: %+v", bc)
	}
	if sess.Pending != nil {
		t.Error("draft must be cleared after publish")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("local photo must be deleted after publish")
	}

	// second publish with no new submission
	if err := pub.Publish(context.Background(), sess); !errors.Is(err, ErrNothingPending) {
		t.Errorf("expected ErrNothingPending, got %v", err)
	}
	if bc.sends != 1 {
		t.Errorf("expected no duplicate send, got %d", bc.sends)
	}
}

func TestPublishTransportFailureKeepsDraft(t *testing.T) {
	sess, path := draftSession(t)
	bc := &fakeBroadcaster{err: errors.New("network down")}
	pub := NewPublisher(bc, &fakeCaptions{})

	if err := pub.Publish(context.Background(), sess); err == nil {
		t.Fatal("expected error")
	}

	if sess.Pending == nil {
		t.Error("draft must survive a failed publish")
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("local photo must survive a failed publish")
	}
}

func TestPublishArchiveFailureDoesNotBlock(t *testing.T) {
	sess, _ := draftSession(t)
	pub := NewPublisher(&fakeBroadcaster{}, &fakeCaptions{})
	arch := &fakeArchiver{err: errors.New("bucket gone")}
	pub.SetArchiver(arch)

	if err := pub.Publish(context.Background(), sess); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if arch.calls != 1 {
		t.Errorf("expected archive attempt, got %d", arch.calls)
	}
	if sess.Pending != nil {
		t.Error("archive failure must not keep the draft")
	}
}

func TestRegenerate(t *testing.T) {
	sess, path := draftSession(t)
	pub := NewPublisher(&fakeBroadcaster{}, &fakeCaptions{reply: "Fresh copy!"})

	text, err := pub.Regenerate(context.Background(), sess)
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if text != "Fresh copy!" {
		t.Errorf("unexpected text: %q", text)
	}
	if sess.Pending.GeneratedText != "Fresh copy!" {
		t.Error("draft text must be overwritten in place")
	}
	if sess.Pending.PhotoPath != path {
		t.Error("regenerate must never change the photo reference")
	}
}

func TestRegenerateFailureKeepsPriorText(t *testing.T) {
	sess, _ := draftSession(t)
	pub := NewPublisher(&fakeBroadcaster{}, &fakeCaptions{err: errors.New("api down")})

	if _, err := pub.Regenerate(context.Background(), sess); err == nil {
		t.Fatal("expected error")
	}
	if sess.Pending.GeneratedText != "Buy this sedan!" {
		t.Error("prior text must be preserved on generator failure")
	}
}

func TestRegenerateNothingPending(t *testing.T) {
	sess := &session.Session{UserID: 42}
	pub := NewPublisher(&fakeBroadcaster{}, &fakeCaptions{reply: "x"})

	if _, err := pub.Regenerate(context.Background(), sess); !errors.Is(err, ErrNothingPending) {
		t.Fatalf("expected ErrNothingPending, got %v", err)
	}
}
