package genie

import "time"

// Config holds the session configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// EventCallback is called for every report placed on the reply queue (optional)
	EventCallback EventCallback

	// AckTimeout bounds the wait for ACK/NAK after a write command
	AckTimeout time.Duration

	// ReplyTimeout bounds the wait for the REPORT_OBJ answering ReadObject
	ReplyTimeout time.Duration

	// InterByteTimeout is the longest gap allowed between two bytes of one
	// frame before the partial frame is dropped
	InterByteTimeout time.Duration

	// QueueSize is the number of unread reports kept; newer reports are
	// discarded while the queue is full
	QueueSize int

	// SyncAttempts is the number of probe bytes Sync sends
	SyncAttempts int

	// SyncTimeout is the wait for a reply to each probe byte
	SyncTimeout time.Duration

	// CommandDelay is an optional pause after writing each command frame
	CommandDelay time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		AckTimeout:       time.Second,
		ReplyTimeout:     50 * time.Millisecond,
		InterByteTimeout: 5 * time.Millisecond,
		QueueSize:        16,
		SyncAttempts:     10,
		SyncTimeout:      20 * time.Millisecond,
	}
}

// DefaultConfig returns the configuration New uses when no options are given.
func DefaultConfig() Config {
	return defaultConfig()
}

// Option is a functional option for configuring the Display.
type Option func(*Config)

// WithLogger sets a logger for session operations.
//
// Example:
//
//	d := genie.New(port, genie.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithEventCallback sets a function called from the reader goroutine for
// every report that is queued. It must return quickly and must not call
// methods of the Display it observes; use dispatch.Dispatcher.Run to answer
// reports with commands.
func WithEventCallback(cb EventCallback) Option {
	return func(c *Config) {
		c.EventCallback = cb
	}
}

// WithAckTimeout sets how long write commands wait for ACK or NAK.
//
// Example:
//
//	d := genie.New(port, genie.WithAckTimeout(500*time.Millisecond))
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.AckTimeout = timeout
		}
	}
}

// WithReplyTimeout sets how long ReadObject waits for the display's answer.
// At 9600 baud a report frame alone takes about 6ms on the wire.
func WithReplyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReplyTimeout = timeout
		}
	}
}

// WithInterByteTimeout sets the gap after which a partial frame is dropped.
func WithInterByteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.InterByteTimeout = timeout
		}
	}
}

// WithQueueSize sets the capacity of the reply queue.
func WithQueueSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.QueueSize = size
		}
	}
}

// WithSync sets the number of probe bytes Sync sends and the wait after each.
func WithSync(attempts int, timeout time.Duration) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.SyncAttempts = attempts
		}
		if timeout > 0 {
			c.SyncTimeout = timeout
		}
	}
}

// WithCommandDelay sets a pause applied after every command frame is written.
func WithCommandDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.CommandDelay = delay
		}
	}
}
