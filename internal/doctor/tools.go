package doctor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rileyhilliard/nasmon/internal/extract"
)

const toolProbeTimeout = 5 * time.Second

// validToolName matches safe tool names: alphanumeric, hyphens, underscores, and periods.
var validToolName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

// ValidateToolName checks if a tool name is safe to use in shell commands.
func ValidateToolName(name string) bool {
	return validToolName.MatchString(name)
}

// Tool is a remote binary one of the extractors or actions depends on.
type Tool struct {
	Name string
	// Feeds names what goes blank without it.
	Feeds    string
	Required bool
}

// Tools returns the remote tools nasmon uses. docker is only listed when
// container monitoring is on.
func Tools(enableDocker bool) []Tool {
	tools := []Tool{
		{Name: "lsblk", Feeds: "disk discovery", Required: true},
		{Name: "smartctl", Feeds: "disk health, temperature and model", Required: true},
		{Name: "df", Feeds: "volume usage", Required: true},
		{Name: "free", Feeds: "memory", Required: true},
		{Name: "hdparm", Feeds: "disk power state"},
		{Name: "sensors", Feeds: "CPU and board temperatures"},
		{Name: "zpool", Feeds: "storage pools and scrubs"},
		{Name: "virsh", Feeds: "virtual machines"},
		{Name: "upsc", Feeds: "UPS readings"},
		{Name: "ip", Feeds: "MAC address listing"},
	}
	if enableDocker {
		tools = append(tools, Tool{Name: "docker", Feeds: "containers", Required: true})
	}
	return tools
}

// ToolCheck looks a tool up on the NAS with `command -v`, under the same
// elevation the extractors use.
type ToolCheck struct {
	Tool   Tool
	Runner extract.Runner
}

// NewToolChecks builds one check per tool.
func NewToolChecks(run extract.Runner, enableDocker bool) []Check {
	tools := Tools(enableDocker)
	checks := make([]Check, 0, len(tools))
	for _, t := range tools {
		checks = append(checks, &ToolCheck{Tool: t, Runner: run})
	}
	return checks
}

func (c *ToolCheck) Name() string     { return "tool_" + c.Tool.Name }
func (c *ToolCheck) Category() string { return CategoryTools }

func (c *ToolCheck) Run(ctx context.Context) CheckResult {
	if !ValidateToolName(c.Tool.Name) {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("Invalid tool name %q", c.Tool.Name)}
	}

	path := strings.TrimSpace(c.Runner.Run(ctx, "command -v "+c.Tool.Name, toolProbeTimeout))
	if path != "" {
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s: %s", c.Tool.Name, path)}
	}

	status := StatusWarn
	if c.Tool.Required {
		status = StatusFail
	}
	return CheckResult{
		Status:     status,
		Message:    fmt.Sprintf("%s not found (needed for %s)", c.Tool.Name, c.Tool.Feeds),
		Suggestion: fmt.Sprintf("Install %s on the NAS", c.Tool.Name),
	}
}
