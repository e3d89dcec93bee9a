package doctor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/liveness"
	"github.com/rileyhilliard/nasmon/internal/pool"
)

// Sessions hands out pooled sessions. *pool.Pool satisfies it.
type Sessions interface {
	Acquire(ctx context.Context) (*pool.Session, pool.Token, error)
	Release(pool.Token)
}

// ReachabilityCheck runs the configured liveness probe once.
type ReachabilityCheck struct {
	Host  string
	Probe liveness.ProbeFunc
}

func (c *ReachabilityCheck) Name() string     { return "reachable" }
func (c *ReachabilityCheck) Category() string { return CategorySSH }
func (c *ReachabilityCheck) Blocks() bool     { return true }

func (c *ReachabilityCheck) Run(ctx context.Context) CheckResult {
	if c.Probe(ctx, c.Host) {
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s answers the probe", c.Host)}
	}
	return CheckResult{
		Status:     StatusFail,
		Message:    fmt.Sprintf("%s does not answer", c.Host),
		Suggestion: "Check that the NAS is on. If ICMP is blocked, set 'probe: tcp'",
	}
}

// LoginCheck opens one SSH session the way the pool does.
type LoginCheck struct {
	Host     string
	Sessions Sessions
}

func (c *LoginCheck) Name() string     { return "login" }
func (c *LoginCheck) Category() string { return CategorySSH }
func (c *LoginCheck) Blocks() bool     { return true }

func (c *LoginCheck) Run(ctx context.Context) CheckResult {
	_, tok, err := c.Sessions.Acquire(ctx)
	if err != nil {
		res := CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("SSH login to %s failed: %v", c.Host, rootCause(err)),
			Suggestion: "Check username, password and ssh_key",
		}
		var nasErr *errors.Error
		if stderrors.As(err, &nasErr) && nasErr.Suggestion != "" {
			res.Suggestion = nasErr.Suggestion
		}
		return res
	}
	c.Sessions.Release(tok)
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("SSH login to %s works", c.Host)}
}

// PrivilegeCheck reports how commands get elevated. Without root, smartctl,
// hdparm and zpool return nothing useful.
type PrivilegeCheck struct {
	Sessions Sessions
}

func (c *PrivilegeCheck) Name() string     { return "privilege" }
func (c *PrivilegeCheck) Category() string { return CategorySSH }

func (c *PrivilegeCheck) Run(ctx context.Context) CheckResult {
	s, tok, err := c.Sessions.Acquire(ctx)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("No session: %v", rootCause(err))}
	}
	defer c.Sessions.Release(tok)

	switch s.Privilege() {
	case pool.PrivilegeRoot:
		return CheckResult{Status: StatusPass, Message: "Logged in as root"}
	case pool.PrivilegeElevated:
		return CheckResult{Status: StatusPass, Message: "sudo works with the configured password"}
	default:
		return CheckResult{
			Status:     StatusWarn,
			Message:    "sudo could not be verified",
			Suggestion: "Set root_password, or allow passwordless sudo for the login user",
		}
	}
}

// rootCause unwraps to the innermost error for a one-line message.
func rootCause(err error) error {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
