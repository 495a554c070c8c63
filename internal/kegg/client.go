// Package kegg implements a minimal, polite client for the two KEGG REST
// endpoints this tool needs: link/pathway (KO -> pathway memberships) and
// list (pathway -> description).
package kegg

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/biosleuth/ko2pathway/internal/config"
	"github.com/biosleuth/ko2pathway/internal/network"
)

const (
	// koPrefix is the namespace tag KEGG uses for orthology identifiers.
	koPrefix = "ko:"
	// pathPrefix is stripped from linked pathway identifiers.
	pathPrefix = "path:"
	// mapPrefix marks the reference (map) pathway namespace. link/pathway
	// also returns ko-namespaced pathway ids, which we discard.
	mapPrefix = "map"
)

// Client talks to the KEGG REST API. Every request passes through a shared
// rate limiter so the tool stays inside KEGG's usage policy no matter how the
// calls interleave.
type Client struct {
	http    *network.Client
	baseURL string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a Client from configuration. A non-positive request
// interval disables throttling, which is how tests avoid real delays.
func NewClient(cfg config.KEGGConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	netCfg := network.NewDefaultClientConfig()
	netCfg.RequestTimeout = cfg.RequestTimeout
	netCfg.UserAgent = cfg.UserAgent
	httpClient, err := network.NewClient(netCfg)
	if err != nil {
		return nil, fmt.Errorf("building HTTP client: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("KEGG"),
	}, nil
}

// LinkPathways resolves a KO code to the reference pathways it belongs to.
// A non-200 status or empty body means no data and returns an empty slice; a
// transport failure returns an error. Either way the caller treats the code
// as unresolved, not the run as failed.
func (c *Client) LinkPathways(ctx context.Context, code string) ([]string, error) {
	body, status, err := c.get(ctx, fmt.Sprintf("%s/link/pathway/%s%s", c.baseURL, koPrefix, code))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || len(strings.TrimSpace(string(body))) == 0 {
		c.logger.Debug("No pathway links for code",
			zap.String("code", code), zap.Int("status", status))
		return nil, nil
	}

	var pathways []string
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			continue
		}
		pw := strings.TrimPrefix(parts[1], pathPrefix)
		if strings.HasPrefix(pw, mapPrefix) {
			pathways = append(pathways, pw)
		}
	}
	return pathways, nil
}

// PathwayDescription resolves a pathway id to its human readable name via the
// list endpoint. ok is false when KEGG has no data or the response is
// malformed; err is reserved for transport failures.
func (c *Client) PathwayDescription(ctx context.Context, pathwayID string) (desc string, ok bool, err error) {
	body, status, err := c.get(ctx, fmt.Sprintf("%s/list/%s", c.baseURL, pathwayID))
	if err != nil {
		return "", false, err
	}
	text := strings.TrimSpace(string(body))
	if status != http.StatusOK || text == "" {
		c.logger.Debug("No description for pathway",
			zap.String("pathway", pathwayID), zap.Int("status", status))
		return "", false, nil
	}

	firstLine := text
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	parts := strings.Split(firstLine, "\t")
	if len(parts) < 2 {
		c.logger.Debug("Malformed list response", zap.String("pathway", pathwayID))
		return "", false, nil
	}
	return parts[1], true, nil
}

// get applies the rate limiter and issues the request.
func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return c.http.GetBody(ctx, url)
}
