// Package monitor implements `nasmon watch`, a full-screen dashboard for a
// single NAS.
//
// The dashboard never talks to the NAS itself. It renders snapshots pushed
// by the agent and asks the agent for an immediate poll when the user
// presses r.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: the latest snapshot, the active section, sparkline history
//   - Update: keystrokes, window resizes, incoming snapshots, refresh results
//   - View: header, section tabs, the section body in a viewport, footer
//
// # Message Flow
//
//  1. Subscribe turns agent callbacks into a latest-wins channel
//  2. waitForSnapshot blocks on that channel and yields a snapshotMsg
//  3. Update stores the snapshot, records history, and waits again
//
// # Sections
//
//	Overview  - host status, temperatures, memory, volumes, UPS
//	Disks     - per-disk table with temperature sparklines
//	Storage   - ZFS pools and scrub progress
//	Guests    - virtual machines and docker containers
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C      - Quit
//	r              - Refresh now
//	Tab, Shift+Tab - Next / previous section
//	1-4            - Jump to a section
//	j/k, ↑/↓       - Scroll
//	?              - Toggle help overlay
//	Esc            - Close help
package monitor
