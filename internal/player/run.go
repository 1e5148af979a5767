package player

import (
	"context"
	"log/slog"
	"time"

	"github.com/petermazzocco/go-presenter/models"
)

// Playlist is one fetch of a presentation. A zero RefreshEvery keeps the
// current refresh period.
type Playlist struct {
	Items        []models.PresentationItem
	RefreshEvery time.Duration
}

// Source loads the current playlist.
type Source interface {
	Playlist(ctx context.Context) (Playlist, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Playlist, error)

func (f SourceFunc) Playlist(ctx context.Context) (Playlist, error) { return f(ctx) }

// Renderer draws a frame. It is called once per tick.
type Renderer interface {
	Render(Frame)
}

type Options struct {
	Clock        Clock
	TickEvery    time.Duration
	RefreshEvery time.Duration
}

// Run plays the items from src until ctx is done. The list is fetched once
// up front and again each time the refresh countdown reaches zero; a failed
// fetch keeps the previous list and is reported on the next frame. A fetch
// that carries a new refresh period restarts the refresh countdown with it.
func Run(ctx context.Context, src Source, r Renderer, opts Options) error {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.TickEvery <= 0 {
		opts.TickEvery = time.Second
	}
	logger := slog.Default().With("component", "player")

	sched := NewScheduler(opts.RefreshEvery, opts.Clock.Now())
	var fetchErr error
	fetch := func() {
		pl, err := src.Playlist(ctx)
		if err != nil {
			logger.Warn("refreshing items failed", "error", err)
			fetchErr = err
			return
		}
		fetchErr = nil
		now := opts.Clock.Now()
		if pl.RefreshEvery > 0 && pl.RefreshEvery != sched.RefreshEvery() {
			logger.Debug("refresh period changed", "from", sched.RefreshEvery(), "to", pl.RefreshEvery)
			sched.SetRefreshEvery(pl.RefreshEvery, now)
		}
		if sched.SetItems(pl.Items, now) {
			logger.Debug("playlist changed", "items", len(pl.Items))
		}
	}

	fetch()
	render := func() {
		f := sched.Frame(opts.Clock.Now())
		f.FetchErr = fetchErr
		r.Render(f)
	}
	render()

	ticker := time.NewTicker(opts.TickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if res := sched.Tick(opts.Clock.Now()); res.RefreshDue {
				fetch()
			}
			render()
		}
	}
}
