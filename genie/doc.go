// Package genie drives a 4D Systems display running a ViSi-Genie program.
//
// # Overview
//
// A Display owns one serial port. A reader goroutine reassembles frames
// from the port and either completes the command currently waiting for an
// answer or places the report on a bounded queue. Commands are serialized;
// each waits for its ACK, NAK or REPORT_OBJ with a timeout.
//
// # Basic Usage
//
//	d, err := genie.Open(ctx, "/dev/serial0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	if err := d.WriteObject(ctx, protocol.ObjLed, 0, 1); err != nil {
//	    log.Fatal(err)
//	}
//	v, err := d.ReadObject(ctx, protocol.ObjSlider, 0)
//
// # Events
//
// Button presses and slider moves arrive as REPORT_EVENT frames. Pull them
// with NextReply, or hand the Display to a dispatch.Dispatcher:
//
//	for {
//	    r, err := d.NextReply(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(r)
//	}
//
// When the queue is full new reports are discarded and counted in
// Stats().Dropped.
//
// # Configuration Options
//
//	d := genie.New(port,
//	    genie.WithLogger(myLogger),
//	    genie.WithAckTimeout(500*time.Millisecond),
//	    genie.WithReplyTimeout(100*time.Millisecond),
//	    genie.WithQueueSize(64),
//	)
//
// # Error Handling
//
// Command failures are *CommandError values wrapping ErrNak, ErrTimeout,
// ErrClosed, a context error or a protocol validation error:
//
//	if errors.Is(err, genie.ErrNak) {
//	    // the display rejected the command
//	}
package genie
