package pool

import (
	"context"
	"io"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/util"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
)

// Privilege is the elevation mode negotiated for a session.
type Privilege int

const (
	// PrivilegeRoot means the login user is already uid 0.
	PrivilegeRoot Privilege = iota
	// PrivilegeElevated means sudo accepted one of the configured passwords.
	PrivilegeElevated
	// PrivilegeFallback means no password was verified; commands still go
	// through sudo with the best available password.
	PrivilegeFallback
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeRoot:
		return "root"
	case PrivilegeElevated:
		return "sudo"
	case PrivilegeFallback:
		return "sudo-unverified"
	default:
		return "unknown"
	}
}

// negotiate decides how a new session elevates, accepting the first success:
// already root, sudo with the root password, sudo with the login password.
// Failures are never fatal; the session falls back to unverified sudo.
func negotiate(ctx context.Context, client sshutil.SSHClient, cfg Config) (Privilege, string) {
	if strings.TrimSpace(runRaw(ctx, client, cfg, "id -u", nil)) == "0" {
		return PrivilegeRoot, ""
	}

	for _, pw := range candidatePasswords(cfg) {
		out := runRaw(ctx, client, cfg, "sudo -S -p '' id -u", strings.NewReader(pw+"\n"))
		if strings.TrimSpace(out) == "0" {
			return PrivilegeElevated, pw
		}
	}

	best := cfg.RootPassword
	if best == "" {
		best = cfg.Password
	}
	cfg.Logger.Debug("sudo could not be verified, falling back to unverified sudo")
	return PrivilegeFallback, best
}

// candidatePasswords returns root then login password, skipping blanks and duplicates.
func candidatePasswords(cfg Config) []string {
	var out []string
	for _, pw := range []string{cfg.RootPassword, cfg.Password} {
		if pw == "" {
			continue
		}
		if len(out) > 0 && out[0] == pw {
			continue
		}
		out = append(out, pw)
	}
	return out
}

func runRaw(ctx context.Context, client sshutil.SSHClient, cfg Config, cmd string, stdin io.Reader) string {
	cctx, cancel := context.WithTimeout(ctx, cfg.CommandTimeout)
	defer cancel()
	out, _, _, err := client.ExecContext(cctx, cmd, stdin)
	if err != nil {
		return ""
	}
	return string(out)
}

// elevate wraps command for the session's privilege. The whole command runs
// under one sh -c so pipes and redirects stay elevated.
func elevate(command string, priv Privilege, password string) (string, io.Reader) {
	if priv == PrivilegeRoot {
		return command, nil
	}
	quoted := util.ShellQuote(command)
	if password == "" {
		return "sudo -n sh -c " + quoted, nil
	}
	return "sudo -S -p '' sh -c " + quoted, strings.NewReader(password + "\n")
}
