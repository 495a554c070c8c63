// Package resolve maps unique KO codes to pathway membership edges, backed by
// a persistent on-disk memo cache so repeat runs skip the slow, rate-limited
// API walk for codes they have already seen.
package resolve

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Edge asserts that ortholog code Code is a member of pathway PathwayID.
// Edges are the unit of aggregation downstream.
type Edge struct {
	Code      string
	PathwayID string
}

// Linker resolves one KO code to zero or more pathway ids. Implemented by
// kegg.Client; tests substitute a mock.
type Linker interface {
	LinkPathways(ctx context.Context, code string) ([]string, error)
}

// progressEvery controls how often live resolution reports progress. With the
// mandatory inter-request delay a large input runs for minutes, so the
// operator needs a heartbeat.
const progressEvery = 25

// Resolver produces the complete edge set for a batch of codes.
type Resolver struct {
	linker    Linker
	cachePath string
	logger    *zap.Logger
}

// New builds a Resolver. cachePath may be empty, which disables persistence
// entirely.
func New(linker Linker, cachePath string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		linker:    linker,
		cachePath: cachePath,
		logger:    logger.Named("Resolver"),
	}
}

// Resolve returns the deduplicated edges for the given codes, in input code
// order. Codes found in the cache are served without any API call; only the
// remainder is resolved live, and after a live pass the merged cache is
// rewritten. A code the service knows nothing about simply contributes zero
// edges.
func (r *Resolver) Resolve(ctx context.Context, codes []string) ([]Edge, error) {
	byCode := make(map[string][]string) // code -> pathway ids, insertion order kept
	seen := make(map[Edge]struct{})

	var cachedEdges []Edge
	if r.cachePath != "" {
		var err error
		cachedEdges, err = LoadCache(r.cachePath, r.logger)
		if err != nil {
			return nil, err
		}
		for _, e := range cachedEdges {
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			byCode[e.Code] = append(byCode[e.Code], e.PathwayID)
		}
	}

	var missing []string
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			missing = append(missing, code)
		}
	}

	r.logger.Info("Resolving KO codes",
		zap.Int("requested", len(codes)),
		zap.Int("cached", len(codes)-len(missing)),
		zap.Int("live_lookups", len(missing)))

	live := 0
	newEdges := make([]Edge, 0, len(missing))
	for i, code := range missing {
		pathways, err := r.linker.LinkPathways(ctx, code)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("resolution aborted: %w", ctx.Err())
			}
			r.logger.Warn("Pathway lookup failed, code contributes no edges",
				zap.String("code", code), zap.Error(err))
			continue
		}
		live++
		for _, pw := range pathways {
			e := Edge{Code: code, PathwayID: pw}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			byCode[code] = append(byCode[code], pw)
			newEdges = append(newEdges, e)
		}
		if (i+1)%progressEvery == 0 {
			r.logger.Info("Live resolution progress",
				zap.Int("done", i+1), zap.Int("total", len(missing)))
		}
	}

	if r.cachePath != "" && live > 0 {
		// The cache stays additive: everything previously known plus this
		// run's discoveries, whether or not the old codes were requested.
		if err := SaveCache(r.cachePath, append(cachedEdges, newEdges...)); err != nil {
			return nil, err
		}
		r.logger.Info("Cache updated",
			zap.String("path", r.cachePath),
			zap.Int("edges", len(cachedEdges)+len(newEdges)))
	}

	var edges []Edge
	for _, code := range codes {
		for _, pw := range byCode[code] {
			edges = append(edges, Edge{Code: code, PathwayID: pw})
		}
	}
	return edges, nil
}
