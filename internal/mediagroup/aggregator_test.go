package mediagroup

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFinalizePerAlbum(t *testing.T) {
	var calls atomic.Int32
	done := make(chan *Group, 1)

	agg := NewAggregator(30*time.Millisecond, func(g *Group) {
		calls.Add(1)
		done <- g
	})

	agg.Add("G1", 42, 100, []Photo{{FileID: "a", FileSize: 500}}, "two cars")
	agg.Add("G1", 42, 100, []Photo{{FileID: "b", FileSize: 900}}, "")

	select {
	case g := <-done:
		if len(g.Photos) != 2 {
			t.Errorf("expected 2 photos, got %d", len(g.Photos))
		}
		if g.Caption != "two cars" {
			t.Errorf("expected caption from first event, got %q", g.Caption)
		}
	case <-time.After(time.Second):
		t.Fatal("finalize never fired")
	}

	time.Sleep(60 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly one finalize, got %d", n)
	}
	if agg.Pending("G1") {
		t.Error("buffer must be deleted after finalize")
	}
}

func TestWindowAnchoredAtFirstArrival(t *testing.T) {
	done := make(chan *Group, 1)
	agg := NewAggregator(50*time.Millisecond, func(g *Group) { done <- g })

	agg.Add("G1", 42, 100, []Photo{{FileID: "a", FileSize: 1}}, "")
	start := time.Now()

	// keep trickling photos; the window must not stretch
	for i := 0; i < 3; i++ {
		time.Sleep(15 * time.Millisecond)
		agg.Add("G1", 42, 100, []Photo{{FileID: "x", FileSize: 1}}, "")
	}

	select {
	case <-done:
		if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
			t.Errorf("window stretched to %v", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("finalize never fired")
	}
}

func TestInterleavedAlbums(t *testing.T) {
	var mu sync.Mutex
	got := make(map[string]int)
	done := make(chan struct{}, 2)

	agg := NewAggregator(30*time.Millisecond, func(g *Group) {
		mu.Lock()
		got[g.ID] = len(g.Photos)
		mu.Unlock()
		done <- struct{}{}
	})

	agg.Add("G1", 1, 10, []Photo{{FileID: "a"}}, "")
	agg.Add("G2", 2, 20, []Photo{{FileID: "b"}}, "")
	agg.Add("G1", 1, 10, []Photo{{FileID: "c"}}, "")
	agg.Add("G2", 2, 20, []Photo{{FileID: "d"}}, "")

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("finalize never fired")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if got["G1"] != 2 || got["G2"] != 2 {
		t.Errorf("expected 2 photos per album, got %v", got)
	}
}

func TestCaptionAdoptedFromLaterEvent(t *testing.T) {
	done := make(chan *Group, 1)
	agg := NewAggregator(30*time.Millisecond, func(g *Group) { done <- g })

	agg.Add("G1", 42, 100, []Photo{{FileID: "a"}}, "")
	agg.Add("G1", 42, 100, []Photo{{FileID: "b"}}, "late caption")

	select {
	case g := <-done:
		if g.Caption != "late caption" {
			t.Errorf("expected late caption adopted, got %q", g.Caption)
		}
	case <-time.After(time.Second):
		t.Fatal("finalize never fired")
	}
}

func TestCancelUser(t *testing.T) {
	var calls atomic.Int32
	agg := NewAggregator(20*time.Millisecond, func(*Group) { calls.Add(1) })

	agg.Add("G1", 42, 100, []Photo{{FileID: "a"}}, "")
	agg.Add("G2", 42, 100, []Photo{{FileID: "b"}}, "")
	agg.Add("G3", 99, 200, []Photo{{FileID: "c"}}, "")

	if dropped := agg.CancelUser(42); dropped != 2 {
		t.Errorf("expected 2 groups dropped, got %d", dropped)
	}

	time.Sleep(60 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected only the other user's finalize, got %d", n)
	}
}

func TestBestPhoto(t *testing.T) {
	photos := []Photo{
		{FileID: "small", FileSize: 500},
		{FileID: "big", FileSize: 900},
		{FileID: "tie", FileSize: 900},
	}

	best, ok := BestPhoto(photos)
	if !ok {
		t.Fatal("expected a photo")
	}
	if best.FileID != "big" {
		t.Errorf("expected first-seen max, got %s", best.FileID)
	}

	if _, ok := BestPhoto(nil); ok {
		t.Error("expected no photo for empty input")
	}
}
