package darkroom

import "log/slog"

// DefaultCheckpointInterval is the number of applied records between cached
// intermediate images.
const DefaultCheckpointInterval = 8

// Option configures a History during creation.
//
// Example:
//
//	// Default: checkpoint every 8 records, package logger, no metrics
//	h := darkroom.NewHistory()
//
//	// Cache more aggressively and export metrics
//	h := darkroom.NewHistory(
//	    darkroom.WithCheckpointInterval(2),
//	    darkroom.WithMetrics(darkroom.NewMetrics(prometheus.DefaultRegisterer)),
//	)
type Option func(*historyOptions)

// historyOptions holds optional configuration for History creation.
type historyOptions struct {
	checkpointInterval int
	metrics            *Metrics
	logger             *slog.Logger
}

// defaultOptions returns the default history options.
func defaultOptions() historyOptions {
	return historyOptions{
		checkpointInterval: DefaultCheckpointInterval,
	}
}

// WithCheckpointInterval sets how often replay caches an intermediate
// image. An interval of n keeps the image after every n-th record, so undo
// replays at most n-1 records from the nearest checkpoint.
//
// An interval of zero or less disables caching: every recompute replays the
// full list from the original image.
func WithCheckpointInterval(n int) Option {
	return func(o *historyOptions) {
		o.checkpointInterval = n
	}
}

// WithMetrics records history activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *historyOptions) {
		o.metrics = m
	}
}

// WithLogger sets a logger for this History only. Without it the History
// logs to the package logger configured with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *historyOptions) {
		o.logger = l
	}
}
