// Package cli implements the nasmon command tree.
//
// Every command loads the config (explicit --config, ./nasmon.yaml, then
// ~/.config/nasmon/config.yaml, with NASMON_* environment overrides),
// validates it, and builds an agent.Agent. Read commands (status, watch,
// serve) consume published snapshots; action commands (reboot, shutdown,
// vm, container, scrub) go through the agent's action executor. doctor
// reports a bad config as a failed check instead of stopping.
//
// Errors are *errors.Error values where possible so the user sees what
// failed, why, and what to try next.
package cli
