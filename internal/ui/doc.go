// Package ui provides the terminal pieces nasmon's commands share: colors
// and thresholds, status symbols, usage bars, sparklines, tables, the action
// spinner, and the plain snapshot renderer behind `nasmon status`.
//
// # Color Scheme
//
// Colors are ANSI codes so they follow the user's terminal theme:
//
//	ColorSuccess   (green)  - Healthy readings, finished actions
//	ColorError     (red)    - Critical readings, failures
//	ColorWarning   (yellow) - Readings past the warning threshold
//	ColorInfo      (cyan)   - Titles
//	ColorMuted     (gray)   - Labels, timing, secondary text
//	ColorSecondary (blue)   - In-progress indicators
//
// UsageColor and TemperatureColor pick between green, yellow and red using
// the Usage* and Temp* thresholds. Use DisableColors() for --no-color.
//
// # Spinner Usage
//
//	s := ui.NewSpinner(os.Stderr, "Rebooting nas.lan", ui.IsTerminal(os.Stderr))
//	s.Start()
//	// ... run the action ...
//	s.Success() // or s.Fail(err.Error())
//
// When animate is false only the final ✓ or ✗ line is written.
package ui
