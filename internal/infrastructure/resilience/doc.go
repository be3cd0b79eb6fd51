/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

The HTTP transport routes every request through a Breaker so a backend that
keeps failing is short-circuited instead of hammered. Which errors count as
failures is decided by Settings.IsSuccessful; the clock is injectable.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Automatic state transitions
- Pluggable failure classification
- State change callbacks for logging

# Usage

	breaker := resilience.New("http-transport", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	err := breaker.Execute(func() error {
		resp, err = req.Send()
		return err
	})

# Half-open probing

After Timeout an open breaker lets MaxRequests calls through. The first
failure reopens it; MaxRequests consecutive successes close it and reset the
counts. Results of calls admitted under an older generation are ignored, so
a slow request that started before a trip cannot close the breaker.
*/
package resilience
