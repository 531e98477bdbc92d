package mediagroup

import (
	"sync"
	"time"

	"github.com/bowerhall/autopost/internal/logger"
)

// Photo is one size variant of a submitted photo.
type Photo struct {
	FileID   string
	FileSize int
	Width    int
	Height   int
}

// Group buffers the burst of per-photo events that make up one album.
type Group struct {
	ID      string
	UserID  int64
	ChatID  int64
	Photos  []Photo
	Caption string

	timer *time.Timer
}

// FinalizeFunc receives the completed group once the quiet window closes.
// It runs on the timer goroutine, outside the aggregator lock.
type FinalizeFunc func(g *Group)

// Aggregator collapses a multi-photo album, delivered as independent
// events sharing a media-group ID, into a single finalize call. The window
// is anchored at first arrival; trailing photos never extend it.
type Aggregator struct {
	mu       sync.Mutex
	groups   map[string]*Group
	delay    time.Duration
	finalize FinalizeFunc
}

func NewAggregator(delay time.Duration, finalize FinalizeFunc) *Aggregator {
	return &Aggregator{
		groups:   make(map[string]*Group),
		delay:    delay,
		finalize: finalize,
	}
}

// Add records one photo event for the album. The first event for a group
// creates the buffer and arms the finalize timer; later events within the
// window only accumulate.
func (a *Aggregator) Add(groupID string, userID, chatID int64, photos []Photo, caption string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if g, ok := a.groups[groupID]; ok {
		g.Photos = append(g.Photos, photos...)
		if g.Caption == "" && caption != "" {
			// telegram attaches the album caption to a single photo,
			// which is not necessarily the first one delivered
			g.Caption = caption
		}
		return
	}

	g := &Group{
		ID:      groupID,
		UserID:  userID,
		ChatID:  chatID,
		Photos:  append([]Photo(nil), photos...),
		Caption: caption,
	}
	g.timer = time.AfterFunc(a.delay, func() { a.fire(groupID) })
	a.groups[groupID] = g

	logger.Debug("media group opened", "group", groupID, "user", userID)
}

// fire closes the window. If the group was removed in the meantime (e.g.
// a restart cancelled it) this is a no-op.
func (a *Aggregator) fire(groupID string) {
	a.mu.Lock()
	g, ok := a.groups[groupID]
	if ok {
		delete(a.groups, groupID)
	}
	a.mu.Unlock()

	if !ok {
		return
	}

	logger.Debug("media group finalized", "group", groupID, "photos", len(g.Photos))
	a.finalize(g)
}

// CancelUser removes every pending group owned by userID and stops its
// timer. Returns how many groups were dropped.
func (a *Aggregator) CancelUser(userID int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	dropped := 0
	for id, g := range a.groups {
		if g.UserID != userID {
			continue
		}
		g.timer.Stop()
		delete(a.groups, id)
		dropped++
	}

	return dropped
}

// Pending reports whether a buffer exists for the album.
func (a *Aggregator) Pending(groupID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.groups[groupID]
	return ok
}

// BestPhoto picks the variant with the largest file size. Ties go to the
// earliest-seen variant.
func BestPhoto(photos []Photo) (Photo, bool) {
	if len(photos) == 0 {
		return Photo{}, false
	}

	best := photos[0]
	for _, p := range photos[1:] {
		if p.FileSize > best.FileSize {
			best = p
		}
	}

	return best, true
}
