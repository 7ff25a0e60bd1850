package fetcher

import (
	"time"

	"github.com/rs/zerolog"
)

// Observer receives fetch lifecycle events. The core never writes to the
// console on its own; hosts inject an implementation or keep the default
// LogObserver.
type Observer interface {
	// AttemptStarted is called before each attempt for a URL.
	AttemptStarted(url string, attempt int)

	// AttemptFailed is called after a failed attempt, before any retry.
	AttemptFailed(url string, attempt int, err *AttemptError)

	// BatchStarted is called before a batch begins fetching.
	BatchStarted(batch, size int)

	// BatchCompleted is called after every request in a batch has
	// settled successfully.
	BatchCompleted(batch, size int, elapsed time.Duration)
}

// NopObserver ignores all events.
type NopObserver struct{}

// AttemptStarted implements Observer.
func (NopObserver) AttemptStarted(string, int) {}

// AttemptFailed implements Observer.
func (NopObserver) AttemptFailed(string, int, *AttemptError) {}

// BatchStarted implements Observer.
func (NopObserver) BatchStarted(int, int) {}

// BatchCompleted implements Observer.
func (NopObserver) BatchCompleted(int, int, time.Duration) {}

// LogObserver logs fetch events through zerolog.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates a logging observer.
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// AttemptStarted implements Observer.
func (o *LogObserver) AttemptStarted(url string, attempt int) {
	o.logger.Debug().
		Str("url", url).
		Int("attempt", attempt).
		Msg("Attempt started")
}

// AttemptFailed implements Observer.
func (o *LogObserver) AttemptFailed(url string, attempt int, err *AttemptError) {
	o.logger.Warn().
		Err(err).
		Str("url", url).
		Int("attempt", attempt).
		Str("failure_kind", string(err.Kind)).
		Msg("Attempt failed")
}

// BatchStarted implements Observer.
func (o *LogObserver) BatchStarted(batch, size int) {
	o.logger.Debug().
		Int("batch", batch).
		Int("size", size).
		Msg("Batch started")
}

// BatchCompleted implements Observer.
func (o *LogObserver) BatchCompleted(batch, size int, elapsed time.Duration) {
	o.logger.Info().
		Int("batch", batch).
		Int("size", size).
		Dur("duration", elapsed).
		Msg("Batch completed")
}
