package extract

import (
	"context"
	"strings"
	"sync"
	"time"
)

// scriptRunner answers commands from a fixed table. Unknown commands return
// "", which is what the pool hands back for a failed command.
type scriptRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
}

func newScriptRunner(outputs map[string]string) *scriptRunner {
	if outputs == nil {
		outputs = map[string]string{}
	}
	return &scriptRunner{outputs: outputs}
}

func (r *scriptRunner) Run(_ context.Context, command string, _ time.Duration) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, command)
	return strings.TrimSpace(r.outputs[command])
}

func (r *scriptRunner) set(command, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[command] = output
}

// ran counts calls whose command starts with prefix.
func (r *scriptRunner) ran(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (r *scriptRunner) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
