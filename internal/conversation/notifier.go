package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...any)

// CLINotifier writes coach messages to the terminal and remembers the
// latest one for the status view.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc

	mu   sync.Mutex
	last string
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a coach message.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.remember(message)
	n.printFn("%s%sCoach:%s %s", cyan, bold, reset, message)
	return nil
}

// NotifyUrgent prints a message in bold red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.remember(message)
	n.printFn("%s%s%s%s", red, bold, message, reset)
	return nil
}

// Last returns the most recent message, or "" before the first one.
func (n *CLINotifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

func (n *CLINotifier) remember(message string) {
	n.mu.Lock()
	n.last = message
	n.mu.Unlock()
}
