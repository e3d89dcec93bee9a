package extract

import (
	"context"

	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// VMExtractor lists libvirt domains.
type VMExtractor struct {
	run Runner
	log logger.Logger
}

// NewVMExtractor creates a VMExtractor.
func NewVMExtractor(run Runner, log logger.Logger) *VMExtractor {
	return &VMExtractor{run: run, log: logger.OrNoop(log)}
}

// Extract lists every domain, running or not. Titles are left empty; call
// Title for each record once the list is published.
func (v *VMExtractor) Extract(ctx context.Context) []snapshot.VMRecord {
	return parsers.ParseVirshList(v.run.Run(ctx, "virsh list --all", toolTimeout))
}

// Title returns the domain's <title>, or name when it has none.
func (v *VMExtractor) Title(ctx context.Context, name string) string {
	return parsers.ResolveVMTitle(v.run.Run(ctx, "virsh dumpxml "+util.QuoteIfNeeded(name), toolTimeout), name)
}

// ContainerExtractor lists docker containers.
type ContainerExtractor struct {
	run Runner
}

// NewContainerExtractor creates a ContainerExtractor.
func NewContainerExtractor(run Runner) *ContainerExtractor {
	return &ContainerExtractor{run: run}
}

// Extract lists all containers with their state.
func (c *ContainerExtractor) Extract(ctx context.Context) []snapshot.ContainerRecord {
	return parsers.ParseDockerPs(c.run.Run(ctx, `docker ps -a --format '{{.Names}}\t{{.State}}'`, toolTimeout))
}
