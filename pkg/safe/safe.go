package safe

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

const maxStackLines = 40

// Run executes fn and logs a recovered panic instead of crashing the process.
func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

// RunWithLog is Run with the component name used in the panic log.
func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stackTrace()),
			)
		}
	}()

	fn()
}

// Go runs fn in a new goroutine under RunWithLog.
func Go(component string, fn func()) {
	go RunWithLog(fn, component)
}

func stackTrace() string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	if len(lines) > maxStackLines {
		lines = append(lines[:maxStackLines], "... (truncated)")
	}
	return strings.Join(lines, "\n")
}
