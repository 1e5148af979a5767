package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/petermazzocco/go-presenter/internal/client"
	"github.com/petermazzocco/go-presenter/internal/player"
	"github.com/spf13/cobra"
)

func newPlayCmd(app *App) *cobra.Command {
	var tick time.Duration
	cmd := &cobra.Command{
		Use:   "play <presentation-id>",
		Short: "Cycle through a presentation in the terminal",
		Long:  "Shows the active item with its countdown and re-fetches the playlist on the presentation's refresh interval. Stop with Ctrl-C.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := c.GetPresentation(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Playing %q\n", p.Title)
			err = player.Run(ctx, presentationSource(c, p.ID), newTermRenderer(cmd.OutOrStdout()), player.Options{
				TickEvery:    tick,
				RefreshEvery: p.RefreshEvery(),
			})
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil && !errors.Is(err, context.Canceled) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Redraw interval")
	return cmd
}

// presentationSource re-reads the whole presentation so edits to its
// refresh interval reach a running player along with the items.
func presentationSource(c *client.Client, id string) player.Source {
	return player.SourceFunc(func(ctx context.Context) (player.Playlist, error) {
		p, err := c.GetPresentation(ctx, id)
		if err != nil {
			return player.Playlist{}, err
		}
		return player.Playlist{Items: p.Items, RefreshEvery: p.RefreshEvery()}, nil
	})
}

// termRenderer redraws a single status line in place.
type termRenderer struct {
	out   io.Writer
	title *color.Color
	warn  *color.Color
}

func newTermRenderer(out io.Writer) *termRenderer {
	return &termRenderer{
		out:   out,
		title: color.New(color.FgCyan, color.Bold),
		warn:  color.New(color.FgRed),
	}
}

func (r *termRenderer) Render(f player.Frame) {
	fmt.Fprint(r.out, "\r\033[K")
	if f.Empty {
		fmt.Fprint(r.out, describeFrame(f))
		return
	}
	r.title.Fprintf(r.out, "[%d/%d] %s", f.Index+1, f.Total, f.Item.Title)
	rest := describeFrame(f)[len(frameHeader(f)):]
	if f.MediaErr != nil || f.FetchErr != nil {
		r.warn.Fprint(r.out, rest)
		return
	}
	fmt.Fprint(r.out, rest)
}

func frameHeader(f player.Frame) string {
	return fmt.Sprintf("[%d/%d] %s", f.Index+1, f.Total, f.Item.Title)
}

// describeFrame is the uncolored status line for f.
func describeFrame(f player.Frame) string {
	if f.Empty {
		line := "No items to show yet | refresh in " + clock(f.RefreshIn)
		if f.FetchErr != nil {
			line += " | refresh failed: " + f.FetchErr.Error()
		}
		return line
	}

	line := frameHeader(f) + " (" + string(f.Item.Type) + ")"
	if f.MediaErr != nil {
		line += " | cannot display: " + f.MediaErr.Error()
	} else {
		line += " " + f.Item.URL
	}
	if f.AutoAdvance {
		line += " | next in " + clock(f.Remaining)
	} else {
		line += " | stays on screen"
	}
	line += " | refresh in " + clock(f.RefreshIn)
	if f.FetchErr != nil {
		line += " | refresh failed: " + f.FetchErr.Error()
	}
	return line
}

// clock formats d as m:ss, rounding partial seconds up.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
