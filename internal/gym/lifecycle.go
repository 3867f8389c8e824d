package gym

import (
	"log/slog"

	"github.com/san-kum/stablegym/internal/dynamo"
)

type Phase int

const (
	Uninitialized Phase = iota
	Ready
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Terminated:
		return "terminated"
	default:
		return "uninitialized"
	}
}

// Lifecycle tracks whether an environment may be stepped.
type Lifecycle struct {
	phase  Phase
	logger *slog.Logger
}

func NewLifecycle(logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{logger: logger}
}

func (l *Lifecycle) Phase() Phase { return l.phase }

func (l *Lifecycle) Reset() { l.phase = Ready }

// CheckStep fails with ErrNotReset before the first reset. Stepping a
// terminated episode is allowed; it is up to the caller to reset.
func (l *Lifecycle) CheckStep() error {
	switch l.phase {
	case Uninitialized:
		return dynamo.ErrNotReset
	case Terminated:
		l.logger.Debug("stepping a terminated episode")
	}
	return nil
}

// Observe records the termination flag of the latest step.
func (l *Lifecycle) Observe(terminated bool) {
	if terminated {
		l.phase = Terminated
	}
}
