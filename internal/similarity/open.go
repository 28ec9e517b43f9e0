package similarity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/tracing"
)

// Open returns the engine cfg describes. Unless Rebuild is set, explicit
// snapshots win, then an existing SnapshotPath. Otherwise the corpus files
// are read and built, and the result is saved to SnapshotPath when set.
func Open(ctx context.Context, cfg config.CorpusConfig, m *metrics.Metrics) (*Engine, error) {
	if !cfg.Rebuild {
		snapshots := cfg.Snapshots
		if len(snapshots) == 0 && cfg.SnapshotPath != "" {
			if _, err := os.Stat(cfg.SnapshotPath); err == nil {
				snapshots = []string{cfg.SnapshotPath}
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("checking snapshot %s: %w", cfg.SnapshotPath, err)
			}
		}
		if len(snapshots) > 0 {
			_, span := tracing.StartSpan(ctx, "load-snapshots")
			defer span.End()
			span.SetAttr("snapshots", len(snapshots))
			e, err := LoadSnapshots(snapshots, m)
			if err != nil {
				span.Fail(err)
			}
			return e, err
		}
	}

	_, span := tracing.StartSpan(ctx, "read")
	sources, err := corpus.ReadSources(cfg.Files)
	if err != nil {
		span.Fail(err)
		span.End()
		return nil, err
	}
	span.SetAttr("files", len(sources))
	span.End()

	e := BuildContext(ctx, corpus.Texts(sources), m)
	if cfg.SnapshotPath != "" {
		_, span := tracing.StartSpan(ctx, "snapshot")
		defer span.End()
		if err := e.SaveSnapshot(cfg.SnapshotPath); err != nil {
			span.Fail(err)
			return nil, err
		}
	}
	return e, nil
}
