package player

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/petermazzocco/go-presenter/models"
	"github.com/zeebo/xxh3"
)

// Scheduler tracks the active item and the next data refresh. It holds no
// goroutines; callers drive it with Tick.
type Scheduler struct {
	items        []models.PresentationItem
	index        int
	slide        Countdown
	refresh      Countdown
	refreshEvery time.Duration
}

func NewScheduler(refreshEvery time.Duration, now time.Time) *Scheduler {
	return &Scheduler{
		refreshEvery: refreshEvery,
		refresh:      NewCountdown(now, refreshEvery),
	}
}

// SetItems replaces the playlist. When the list differs from the current one
// playback restarts from the first item; an identical list leaves the
// position and countdown alone.
func (s *Scheduler) SetItems(items []models.PresentationItem, now time.Time) bool {
	if sameItems(s.items, items) {
		return false
	}
	s.items = append([]models.PresentationItem(nil), items...)
	s.index = 0
	s.startSlide(now)
	return true
}

// SetRefreshEvery changes the refresh period and restarts that countdown.
func (s *Scheduler) SetRefreshEvery(d time.Duration, now time.Time) {
	s.refreshEvery = d
	s.refresh = NewCountdown(now, d)
}

func (s *Scheduler) startSlide(now time.Time) {
	if len(s.items) == 0 {
		s.slide = Countdown{}
		return
	}
	s.slide = NewCountdown(now, s.items[s.index].DisplayDuration())
}

type TickResult struct {
	Advanced   bool
	RefreshDue bool
}

// Tick advances past an expired item and restarts an expired refresh
// countdown. It advances at most one item per call.
func (s *Scheduler) Tick(now time.Time) TickResult {
	var res TickResult
	if len(s.items) > 0 && s.slide.Expired(now) {
		s.Advance(now)
		res.Advanced = true
	}
	if s.refresh.Expired(now) {
		s.refresh = NewCountdown(now, s.refreshEvery)
		res.RefreshDue = true
	}
	return res
}

// Advance moves to the next item, wrapping to the first.
func (s *Scheduler) Advance(now time.Time) {
	if len(s.items) == 0 {
		return
	}
	s.index = (s.index + 1) % len(s.items)
	s.startSlide(now)
}

// Current returns the active item, or false for an empty playlist.
func (s *Scheduler) Current() (models.PresentationItem, bool) {
	if len(s.items) == 0 {
		return models.PresentationItem{}, false
	}
	return s.items[s.index], true
}

func (s *Scheduler) Index() int { return s.index }

func (s *Scheduler) Len() int { return len(s.items) }

// Remaining is the time left on the active item; zero when it does not
// auto-advance.
func (s *Scheduler) Remaining(now time.Time) time.Duration {
	return s.slide.Remaining(now)
}

func (s *Scheduler) AutoAdvance() bool {
	return s.slide.Enabled()
}

func (s *Scheduler) RefreshEvery() time.Duration { return s.refreshEvery }

func (s *Scheduler) RefreshRemaining(now time.Time) time.Duration {
	return s.refresh.Remaining(now)
}

// Frame is a snapshot for rendering.
type Frame struct {
	Item        models.PresentationItem
	Empty       bool
	Index       int
	Total       int
	Remaining   time.Duration
	AutoAdvance bool
	RefreshIn   time.Duration
	MediaErr    error
	FetchErr    error
}

func (s *Scheduler) Frame(now time.Time) Frame {
	item, ok := s.Current()
	f := Frame{
		Item:        item,
		Empty:       !ok,
		Index:       s.index,
		Total:       len(s.items),
		Remaining:   s.Remaining(now),
		AutoAdvance: ok && s.AutoAdvance(),
		RefreshIn:   s.RefreshRemaining(now),
	}
	if ok {
		f.MediaErr = ValidMediaURL(item.URL)
	}
	return f
}

// Fingerprint identifies a playlist by the fields that make two lists differ
// for playback. Stateless players carry it between page loads.
func Fingerprint(items []models.PresentationItem) string {
	h := xxh3.New()
	for _, it := range items {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d\x00%d\x01", it.ID, it.Type, it.Title, it.URL, it.DisplayTime, it.OrderIndex)
	}
	return strconv.FormatUint(h.Sum64(), 36)
}

func sameItems(a, b []models.PresentationItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Type != y.Type || x.Title != y.Title || x.URL != y.URL ||
			x.DisplayTime != y.DisplayTime || x.OrderIndex != y.OrderIndex {
			return false
		}
	}
	return true
}

var ErrInvalidMediaURL = errors.New("invalid media url")

// ValidMediaURL accepts absolute http(s) URLs only.
func ValidMediaURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMediaURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidMediaURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidMediaURL)
	}
	return nil
}
