package genie

import "github.com/moffa90/go-genie/protocol"

// EventCallback observes reports as they are queued.
//
// It runs on the session's reader goroutine, so it must not call methods of
// the same Display: a command issued from the callback waits for an answer
// only the blocked reader could deliver, and fails with ErrTimeout. To act
// on reports, consume them with NextReply or a dispatch.Dispatcher.
//
// Example:
//
//	d := genie.New(port,
//	    genie.WithEventCallback(func(r protocol.Reply) {
//	        fmt.Println("report:", r)
//	    }),
//	)
type EventCallback func(protocol.Reply)

// Logger is an optional logging interface that can be provided to the session.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Stats counts link-level events since the session started.
type Stats struct {
	// Acks and Naks count single-byte replies received
	Acks uint64
	Naks uint64

	// Reports counts report frames received (solicited or not)
	Reports uint64

	// ChecksumErrors counts frames dropped for a bad checksum
	ChecksumErrors uint64

	// Timeouts counts partial frames dropped after an inter-byte timeout
	Timeouts uint64

	// Dropped counts reports discarded because the queue was full
	Dropped uint64

	// Discarded counts stray bytes that did not start any frame
	Discarded uint64

	// Late counts answers that arrived after their command gave up
	Late uint64
}
