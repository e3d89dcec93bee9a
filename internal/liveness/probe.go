package liveness

import (
	"context"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProbeBudget bounds a single reachability probe.
const ProbeBudget = 2 * time.Second

// ProbeFunc reports whether host answers right now. It must return within
// a few seconds and never block on the SSH pool.
type ProbeFunc func(ctx context.Context, host string) bool

// IsLocal reports whether host is the loopback machine.
func IsLocal(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// PingProbe sends one ICMP echo with a 1s reply wait inside a 2s budget.
// Loopback targets are always reachable.
func PingProbe(ctx context.Context, host string) bool {
	if IsLocal(host) {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeBudget)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", "1", host)
	return cmd.Run() == nil
}

// TCPProbe returns a probe that opens and closes a TCP connection to port.
// Use it where ICMP is filtered but the SSH port is open.
func TCPProbe(port int) ProbeFunc {
	return func(ctx context.Context, host string) bool {
		if IsLocal(host) {
			return true
		}

		d := net.Dialer{Timeout: ProbeBudget}
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// ProbeByName maps a configured probe method to its ProbeFunc. Unknown
// names fall back to ping.
func ProbeByName(method string, port int) ProbeFunc {
	if strings.EqualFold(method, "tcp") {
		return TCPProbe(port)
	}
	return PingProbe
}
