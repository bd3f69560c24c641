// Package admin provides destructive maintenance operations.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

// ResetTimeout is the maximum duration for reset operations.
const ResetTimeout = 30 * time.Second

// HistoryResetter clears persisted run history.
type HistoryResetter interface {
	Reset(ctx context.Context) error
}

// Reset handles reset operations.
type Reset struct {
	History HistoryResetter // nil when no database is configured
	Logs    logging.StageLogs
}

type resetFn func(ctx context.Context) error

// ResetAll truncates run history and removes the stage action logs.
// This is a destructive operation - use with caution.
func (r *Reset) ResetAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	resets := []resetFn{r.ResetLogs}
	if r.History != nil {
		resets = append(resets, r.History.Reset)
	}
	return r.runResets(ctx, resets)
}

// ResetLogs removes the three stage log files. Missing files are fine.
func (r *Reset) ResetLogs(_ context.Context) error {
	for _, l := range []*logging.ActionLog{r.Logs.Detection, r.Logs.Correction, r.Logs.Enrichment} {
		if l == nil {
			continue
		}
		if err := os.Remove(l.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", l.Path(), err)
		}
		slog.Debug("stage log removed", "path", l.Path())
	}
	return nil
}

func (r *Reset) runResets(ctx context.Context, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
