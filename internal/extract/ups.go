package extract

import (
	"context"
	"time"

	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// PowerBackupExtractor reads the first UPS known to the NUT daemon.
type PowerBackupExtractor struct {
	run Runner
	log logger.Logger
	now func() time.Time
}

// NewPowerBackupExtractor creates a PowerBackupExtractor. A nil clock uses
// time.Now.
func NewPowerBackupExtractor(run Runner, now func() time.Time, log logger.Logger) *PowerBackupExtractor {
	if now == nil {
		now = time.Now
	}
	return &PowerBackupExtractor{run: run, now: now, log: logger.OrNoop(log)}
}

// Extract returns the UPS reading, or the zero value when no UPS is
// configured or upsc is missing.
func (u *PowerBackupExtractor) Extract(ctx context.Context) snapshot.PowerBackupInfo {
	names := parsers.ParseUpscList(u.run.Run(ctx, "upsc -l 2>/dev/null", toolTimeout))
	if len(names) == 0 {
		return snapshot.PowerBackupInfo{}
	}

	name := names[0]
	info := parsers.ParsePowerBackup(name, u.run.Run(ctx, "upsc "+util.QuoteIfNeeded(name)+" 2>/dev/null", toolTimeout))
	if !info.Present() {
		u.log.Debug("upsc returned nothing for %s", name)
		return info
	}
	info.LastUpdate = u.now().Format(time.DateTime)
	return info
}
