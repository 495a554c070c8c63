// Package enrich resolves pathway identifiers to human readable descriptions.
// The mapping it returns is total over its input: a failed lookup yields an
// explicit not-OK entry rather than a dropped key, and the sentinel string
// for unknown pathways is applied only where rows are serialized.
package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Describer resolves one pathway id to its description. Implemented by
// kegg.Client; tests substitute a mock.
type Describer interface {
	PathwayDescription(ctx context.Context, pathwayID string) (desc string, ok bool, err error)
}

// Description is the lookup result for one pathway id. OK is false when the
// service had no data; Text is then empty and callers decide how to render
// the miss.
type Description struct {
	Text string
	OK   bool
}

const progressEvery = 25

// Enricher fetches descriptions for batches of pathway ids. Results are held
// in memory only, so a miss is retried naturally on the next run.
type Enricher struct {
	describer Describer
	logger    *zap.Logger
}

// New builds an Enricher.
func New(describer Describer, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{describer: describer, logger: logger.Named("Enricher")}
}

// Describe resolves every unique pathway id to a Description. The returned
// map always contains exactly the input keys. Per-item failures degrade to a
// not-OK entry; only a cancelled context aborts the batch.
func (e *Enricher) Describe(ctx context.Context, pathwayIDs []string) (map[string]Description, error) {
	e.logger.Info("Fetching pathway descriptions", zap.Int("pathways", len(pathwayIDs)))

	descs := make(map[string]Description, len(pathwayIDs))
	done := 0
	for _, id := range pathwayIDs {
		if _, dup := descs[id]; dup {
			continue
		}

		text, ok, err := e.describer.PathwayDescription(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("enrichment aborted: %w", ctx.Err())
			}
			e.logger.Warn("Description lookup failed",
				zap.String("pathway", id), zap.Error(err))
			ok = false
			text = ""
		}
		if !ok {
			e.logger.Debug("Pathway has no description", zap.String("pathway", id))
		}
		descs[id] = Description{Text: text, OK: ok}

		done++
		if done%progressEvery == 0 {
			e.logger.Info("Description progress",
				zap.Int("done", done), zap.Int("total", len(pathwayIDs)))
		}
	}
	return descs, nil
}
