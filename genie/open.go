package genie

import (
	"context"

	"github.com/moffa90/go-genie/transport"
)

// Open opens the serial device, starts a session on it and synchronises
// with the display. A display that does not answer the sync probes is not
// an error: it may still be booting, so Open logs and carries on.
//
// Example:
//
//	d, err := genie.Open(ctx, "/dev/serial0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
func Open(ctx context.Context, device string, baud int, opts ...Option) (*Display, error) {
	port, err := transport.Open(transport.Config{Device: device, Baud: baud})
	if err != nil {
		return nil, err
	}
	return Attach(ctx, port, opts...)
}

// Attach starts a session on an already open port and synchronises with
// the display, as Open does.
func Attach(ctx context.Context, port transport.Port, opts ...Option) (*Display, error) {
	d := New(port, opts...)
	d.Start()

	if err := d.Sync(ctx); err != nil {
		if ctx.Err() != nil {
			d.Close()
			return nil, err
		}
		d.logError("display did not answer sync probes", "error", err)
	} else {
		d.logInfo("display session started")
	}
	return d, nil
}
