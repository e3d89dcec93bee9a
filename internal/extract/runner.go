// Package extract holds the metric extractors. Each one issues a fixed set
// of remote commands through a Runner and folds the parsed output into one
// part of the snapshot. Extractors never return errors: missing output
// becomes a sentinel, an empty collection, or a cached prior value.
package extract

import (
	"context"
	"time"
)

// Per-command timeouts.
const (
	// sysfsTimeout covers cheap reads of kernel pseudo-files.
	sysfsTimeout = 5 * time.Second
	// toolTimeout covers heavier tools such as smartctl, virsh and zpool.
	toolTimeout = 10 * time.Second
)

// Runner executes a shell command on the NAS and returns trimmed stdout,
// or "" on any failure. *pool.Pool satisfies it.
type Runner interface {
	Run(ctx context.Context, command string, timeout time.Duration) string
}
