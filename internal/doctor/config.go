package doctor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

// ConfigCheck reports how the config was found and whether it is valid.
// Path is "" when nasmon fell back to defaults plus environment. Err holds
// the load or validation error, if any.
type ConfigCheck struct {
	Path string
	Err  error
}

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return CategoryConfig }
func (c *ConfigCheck) Blocks() bool     { return true }

func (c *ConfigCheck) Run(context.Context) CheckResult {
	if c.Err != nil {
		res := CheckResult{Status: StatusFail, Message: c.Err.Error()}
		var nasErr *errors.Error
		if stderrors.As(c.Err, &nasErr) {
			res.Message = nasErr.Message
			res.Suggestion = nasErr.Suggestion
		}
		return res
	}

	if c.Path == "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No config file, using defaults and NASMON_* environment",
			Suggestion: "Run 'nasmon init' to create one",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Config valid: %s", c.Path),
	}
}
