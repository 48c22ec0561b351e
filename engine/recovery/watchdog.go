package recovery

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBootDeadline is how long the renderer has to mount before the
// session is declared unrecoverable.
const DefaultBootDeadline = 12 * time.Second

// Watchdog is a one-shot boot deadman's switch: armed when boot begins, it
// fires a terminal fatal transition if the renderer has not mounted by the
// deadline. There is no retry; failure at this stage indicates boot-level
// breakage rather than a transient condition.
type Watchdog interface {
	// Arm starts the deadline timer. Arming an already armed or expired
	// watchdog has no effect.
	Arm()

	// MarkMounted records that the renderer mounted and disarms the timer.
	// Has no effect once the watchdog has fired.
	MarkMounted()

	// Fatal reports whether the deadline expired before the renderer mounted.
	//
	// Returns:
	//   - bool: true if the watchdog fired
	Fatal() bool
}

type watchdog struct {
	mu sync.Mutex

	deadline time.Duration
	timer    *time.Timer
	armed    bool
	mounted  bool
	fatal    bool

	onFatal func()
	logger  *zap.Logger
}

var _ Watchdog = &watchdog{}

// NewWatchdog creates a boot Watchdog configured with the provided options.
//
// Parameters:
//   - options: functional options to configure the watchdog
//
// Returns:
//   - Watchdog: the newly created watchdog
func NewWatchdog(options ...WatchdogBuilderOption) Watchdog {
	w := &watchdog{
		deadline: DefaultBootDeadline,
		onFatal:  func() {},
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func (w *watchdog) Arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armed || w.fatal {
		return
	}
	w.armed = true
	w.timer = time.AfterFunc(w.deadline, w.expire)
}

func (w *watchdog) MarkMounted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fatal {
		return
	}
	w.mounted = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *watchdog) expire() {
	w.mu.Lock()
	if w.mounted || w.fatal {
		w.mu.Unlock()
		return
	}
	w.fatal = true
	w.timer = nil
	w.mu.Unlock()

	w.logger.Error("renderer failed to mount before boot deadline",
		zap.Duration("deadline", w.deadline),
	)
	w.onFatal()
}

func (w *watchdog) Fatal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fatal
}
