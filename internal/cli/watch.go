package cli

import (
	"context"
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/brettbedarf/memvfs/internal/util"
)

// editors often write a file in several steps; coalesce them
const reloadDebounce = 100 * time.Millisecond

var errNoTree = errors.New("watch requires --tree")

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the tree whenever the definition file changes and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.treePath == "" {
				return errNoTree
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			renderRoot(out, a.engine)
			return watchFile(ctx, a.treePath, func() {
				logger := util.GetLogger("cli.watch")
				if err := a.reload(ctx); err != nil {
					logger.Error().Err(err).Str("tree", a.treePath).Msg("Reload failed; keeping previous tree")
					return
				}
				logger.Info().Str("tree", a.treePath).Msg("Tree reloaded")
				renderRoot(out, a.engine)
			})
		},
	}
}

// watchFile calls onChange after path is written or replaced until ctx is
// done. The parent directory is watched so atomic renames are seen too.
func watchFile(ctx context.Context, path string, onChange func()) error {
	logger := util.GetLogger("cli.watchFile")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Debug().Str("path", abs).Msg("Watching")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Trace().Str("op", ev.Op.String()).Msg("Definition changed")
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}
