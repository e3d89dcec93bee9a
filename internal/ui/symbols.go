package ui

// Status glyphs shared by the plain renderer and the dashboard.
const (
	SymbolSuccess  = "✓" // Command accepted
	SymbolFail     = "✗" // Command rejected
	SymbolOnline   = "●" // Host or guest running
	SymbolOffline  = "○" // Host or guest stopped
	SymbolBusy     = "◐" // Rebooting, scrubbing, restarting
	SymbolDormant  = "◌" // Disk spun down
	SymbolSkipped  = "⊘" // Not detected
	SymbolWarning  = "▲"
	SymbolProgress = "◐"
)
