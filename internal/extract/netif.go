package extract

import (
	"context"

	"github.com/rileyhilliard/nasmon/internal/parsers"
)

// ListMACs returns the host's physical interfaces with their MAC addresses.
func ListMACs(ctx context.Context, run Runner) []parsers.Interface {
	return parsers.ParseIPLink(run.Run(ctx, "ip link show", sysfsTimeout))
}
