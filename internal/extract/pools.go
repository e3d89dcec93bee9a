package extract

import (
	"context"

	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// PoolExtractor reads ZFS storage pools and their scrub status.
type PoolExtractor struct {
	run Runner
	log logger.Logger
}

// NewPoolExtractor creates a PoolExtractor.
func NewPoolExtractor(run Runner, log logger.Logger) *PoolExtractor {
	return &PoolExtractor{run: run, log: logger.OrNoop(log)}
}

// Pools lists every imported pool. Hosts without ZFS yield an empty list.
func (p *PoolExtractor) Pools(ctx context.Context) []snapshot.StoragePoolRecord {
	return parsers.ParseZpoolList(p.run.Run(ctx, "zpool list -H -o "+parsers.ZpoolListColumns+" 2>/dev/null", toolTimeout))
}

// Scrub returns the scrub status of one pool.
func (p *PoolExtractor) Scrub(ctx context.Context, name string) snapshot.ScrubStatus {
	return parsers.ParseScrubStatus(p.run.Run(ctx, "zpool status "+util.QuoteIfNeeded(name)+" 2>/dev/null", toolTimeout))
}

// Extract lists pools and the scrub status of each, keyed by pool name.
func (p *PoolExtractor) Extract(ctx context.Context) ([]snapshot.StoragePoolRecord, map[string]snapshot.ScrubStatus) {
	pools := p.Pools(ctx)
	scrub := make(map[string]snapshot.ScrubStatus, len(pools))
	for _, pool := range pools {
		scrub[pool.Name] = p.Scrub(ctx, pool.Name)
	}
	if len(pools) > 0 {
		p.log.Debug("read %d storage pools", len(pools))
	}
	return pools, scrub
}
