package genie

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moffa90/go-genie/protocol"
	"github.com/moffa90/go-genie/transport"
)

// readBufferSize is the chunk size of each port read.
const readBufferSize = 64

// Display is a session with one ViSi-Genie display module.
//
// A single reader goroutine owns the port's read side. Commands are
// serialized: each holds the session until its ACK, NAK or report arrives
// or it times out. Display is safe for concurrent use after Start.
type Display struct {
	port   transport.Port
	config Config

	cmdMu sync.Mutex // one command in flight

	mu      sync.Mutex // guards pending, late and err
	pending *pending
	late    []lateAnswer
	err     error

	replies chan protocol.Reply

	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
	readerEnd chan struct{}

	acks           atomic.Uint64
	naks           atomic.Uint64
	reports        atomic.Uint64
	checksumErrors atomic.Uint64
	timeouts       atomic.Uint64
	dropped        atomic.Uint64
	discarded      atomic.Uint64
	lateAnswers    atomic.Uint64
}

// pending is the in-flight command waiting for its answer.
type pending struct {
	// wantReport is true for ReadObject, which is answered by REPORT_OBJ
	wantReport bool
	// nakOnly is true for the sync probe, which only a NAK answers
	nakOnly    bool
	object     protocol.ObjectType
	index      byte
	result     chan protocol.Reply
}

func newPending() *pending {
	return &pending{result: make(chan protocol.Reply, 1)}
}

// lateAnswer is a command that gave up waiting while its answer may still
// be on the way. The display answers in order, so the first answer one of
// these accepts belongs to it and not to the command now in flight.
type lateAnswer struct {
	p       *pending
	expires time.Time
}

// New creates a session over port. Call Start to begin reading.
//
// Example:
//
//	port, _ := transport.Open(transport.Config{Device: "/dev/serial0", Baud: 115200})
//	d := genie.New(port, genie.WithAckTimeout(500*time.Millisecond))
//	d.Start()
//	defer d.Close()
func New(port transport.Port, opts ...Option) *Display {
	if port == nil {
		panic("port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Display{
		port:      port,
		config:    cfg,
		replies:   make(chan protocol.Reply, cfg.QueueSize),
		done:      make(chan struct{}),
		readerEnd: make(chan struct{}),
	}
}

// Start launches the reader goroutine. Calling it again has no effect.
func (d *Display) Start() {
	d.startOnce.Do(func() {
		d.started.Store(true)
		go d.readLoop()
	})
}

// Close stops the reader and closes the port. It is safe to call more than
// once; later calls return nil.
func (d *Display) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.stop(nil)
		err = d.port.Close()
		if d.started.Load() {
			<-d.readerEnd
		}
	})
	return err
}

// Err returns the error that stopped the reader, if any.
func (d *Display) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Done is closed when the session stops.
func (d *Display) Done() <-chan struct{} {
	return d.done
}

// Stats returns a snapshot of the link counters.
func (d *Display) Stats() Stats {
	return Stats{
		Acks:           d.acks.Load(),
		Naks:           d.naks.Load(),
		Reports:        d.reports.Load(),
		ChecksumErrors: d.checksumErrors.Load(),
		Timeouts:       d.timeouts.Load(),
		Dropped:        d.dropped.Load(),
		Discarded:      d.discarded.Load(),
		Late:           d.lateAnswers.Load(),
	}
}

func (d *Display) stop(err error) {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.err = err
		d.mu.Unlock()
		close(d.done)
	})
}

// closedErr returns ErrClosed, wrapping the reader failure when there is one.
func (d *Display) closedErr() error {
	if err := d.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return ErrClosed
}

// readLoop reads the port until the session stops, reassembling frames and
// routing them.
func (d *Display) readLoop() {
	defer close(d.readerEnd)

	if err := d.port.SetReadTimeout(d.config.InterByteTimeout); err != nil {
		d.logError("set read timeout", "error", err)
		d.stop(err)
		return
	}

	dec := protocol.NewDecoder()
	buf := make([]byte, readBufferSize)
	for {
		n, err := d.port.Read(buf)
		select {
		case <-d.done:
			return
		default:
		}
		if err != nil {
			d.logError("read failed", "error", err)
			d.stop(err)
			return
		}

		if n == 0 {
			if dec.Pending() {
				dec.Reset()
				d.timeouts.Add(1)
				d.logDebug("partial frame dropped after inter-byte timeout")
			}
			continue
		}

		for _, b := range buf[:n] {
			reply, ok, err := dec.Feed(b)
			if err != nil {
				d.countDecodeError(err)
				continue
			}
			if ok {
				d.route(reply)
			}
		}
	}
}

func (d *Display) countDecodeError(err error) {
	switch {
	case errors.Is(err, protocol.ErrChecksum):
		d.checksumErrors.Add(1)
		d.logDebug("frame dropped", "error", err)
	case errors.Is(err, protocol.ErrUnknownCommand):
		d.discarded.Add(1)
	default:
		d.logDebug("decode error", "error", err)
	}
}

// route hands a decoded frame to the in-flight command or the reply queue.
func (d *Display) route(r protocol.Reply) {
	switch {
	case r.IsAck():
		d.acks.Add(1)
	case r.IsNak():
		d.naks.Add(1)
	default:
		d.reports.Add(1)
	}

	d.mu.Lock()
	if d.claimLate(r) {
		d.mu.Unlock()
		d.lateAnswers.Add(1)
		d.logDebug("late answer discarded", "reply", r.String())
		return
	}
	p := d.pending
	if p != nil && p.accepts(r) {
		d.pending = nil
		d.mu.Unlock()
		p.result <- r
		return
	}
	d.mu.Unlock()

	if r.IsAck() || r.IsNak() {
		d.logDebug("unsolicited reply", "reply", r.String())
		return
	}
	d.enqueue(r)
}

// claimLate reports whether r answers a command that already gave up, and
// forgets that command and any abandoned before it. Expired entries are
// pruned first so a display that never answered cannot swallow later
// replies. d.mu must be held.
func (d *Display) claimLate(r protocol.Reply) bool {
	now := time.Now()
	live := d.late[:0]
	for _, l := range d.late {
		if now.Before(l.expires) {
			live = append(live, l)
		}
	}
	clear(d.late[len(live):])
	d.late = live

	for i, l := range d.late {
		if l.p.accepts(r) {
			rest := copy(d.late, d.late[i+1:])
			clear(d.late[rest:])
			d.late = d.late[:rest]
			return true
		}
	}
	return false
}

// abandon withdraws p after its wait ended without an answer. If the reader
// resolved p in the meantime, that answer is returned instead. Otherwise p
// is remembered for grace so its late answer is not credited to the next
// command.
func (d *Display) abandon(p *pending, grace time.Duration) (protocol.Reply, bool) {
	d.mu.Lock()
	if d.pending != p {
		d.mu.Unlock()
		return <-p.result, true
	}
	d.pending = nil
	d.late = append(d.late, lateAnswer{p: p, expires: time.Now().Add(grace)})
	d.mu.Unlock()
	return protocol.Reply{}, false
}

func (p *pending) accepts(r protocol.Reply) bool {
	if r.IsNak() {
		return true
	}
	if p.nakOnly {
		return false
	}
	if !p.wantReport {
		return r.IsAck()
	}
	return r.Command == protocol.CmdReportObj && r.Object == p.object && r.Index == p.index
}

// enqueue stores a report, discarding it when the queue is full.
func (d *Display) enqueue(r protocol.Reply) {
	select {
	case d.replies <- r:
		if d.config.EventCallback != nil {
			d.config.EventCallback(r)
		}
	default:
		d.dropped.Add(1)
		d.logDebug("reply queue full, report discarded", "reply", r.String())
	}
}

// ReplyAvailable reports whether a report is waiting in the queue.
func (d *Display) ReplyAvailable() bool {
	return len(d.replies) > 0
}

// TryReply returns the next queued report without blocking.
func (d *Display) TryReply() (protocol.Reply, bool) {
	select {
	case r := <-d.replies:
		return r, true
	default:
		return protocol.Reply{}, false
	}
}

// NextReply blocks until a report is available, ctx is done or the session
// stops. Reports already queued are still returned after the session stops.
func (d *Display) NextReply(ctx context.Context) (protocol.Reply, error) {
	if r, ok := d.TryReply(); ok {
		return r, nil
	}
	select {
	case r := <-d.replies:
		return r, nil
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	case <-d.done:
		if r, ok := d.TryReply(); ok {
			return r, nil
		}
		return protocol.Reply{}, d.closedErr()
	}
}

// exchange writes frame and waits up to timeout for the answer p accepts.
func (d *Display) exchange(ctx context.Context, frame []byte, p *pending, timeout time.Duration) (protocol.Reply, error) {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	select {
	case <-d.done:
		return protocol.Reply{}, d.closedErr()
	default:
	}
	if err := ctx.Err(); err != nil {
		return protocol.Reply{}, err
	}

	d.mu.Lock()
	d.pending = p
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		if d.pending == p {
			d.pending = nil
		}
		d.mu.Unlock()
	}()

	if _, err := d.port.Write(frame); err != nil {
		return protocol.Reply{}, fmt.Errorf("write command: %w", err)
	}

	if d.config.CommandDelay > 0 {
		time.Sleep(d.config.CommandDelay)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	grace := max(timeout, d.config.AckTimeout)
	select {
	case r := <-p.result:
		return r, nil
	case <-timer.C:
		if r, ok := d.abandon(p, grace); ok {
			return r, nil
		}
		return protocol.Reply{}, ErrTimeout
	case <-ctx.Done():
		if r, ok := d.abandon(p, grace); ok {
			return r, nil
		}
		return protocol.Reply{}, ctx.Err()
	case <-d.done:
		return protocol.Reply{}, d.closedErr()
	}
}

// Sync sends probe bytes until the display NAKs one, clearing whatever
// garbage the line picked up when the port was opened. The display NAKs
// each stray byte; an ACK does not count.
func (d *Display) Sync(ctx context.Context) error {
	for attempt := 1; attempt <= d.config.SyncAttempts; attempt++ {
		p := newPending()
		p.nakOnly = true
		_, err := d.exchange(ctx, []byte{protocol.SyncProbe}, p, d.config.SyncTimeout)
		if err == nil {
			d.logDebug("display synchronised", "attempt", attempt)
			return nil
		}
		if !errors.Is(err, ErrTimeout) {
			return &CommandError{Op: "sync", Err: err}
		}
	}
	return &CommandError{Op: "sync", Err: ErrNotResponding}
}

// ReadObject asks the display for the current value of an object.
//
// Reports that arrive while waiting and do not answer this request stay on
// the reply queue.
//
// Example:
//
//	v, err := d.ReadObject(ctx, protocol.ObjSlider, 0)
func (d *Display) ReadObject(ctx context.Context, object protocol.ObjectType, index byte) (uint16, error) {
	p := newPending()
	p.wantReport = true
	p.object = object
	p.index = index

	r, err := d.exchange(ctx, protocol.BuildReadObjCmd(object, index), p, d.config.ReplyTimeout)
	if err == nil && r.IsNak() {
		err = ErrNak
	}
	if err != nil {
		return 0, &CommandError{Op: "read object", Object: object, Index: index, HasTarget: true, Err: err}
	}

	d.logDebug("read object", "object", object.String(), "index", index, "value", r.Value)
	return r.Value, nil
}

// WriteObject sets the value of an object and waits for the display's ACK.
func (d *Display) WriteObject(ctx context.Context, object protocol.ObjectType, index byte, value uint16) error {
	err := d.writeFrame(ctx, protocol.BuildWriteObjCmd(object, index, value))
	if err != nil {
		return &CommandError{Op: "write object", Object: object, Index: index, HasTarget: true, Err: err}
	}
	return nil
}

// WriteContrast sets the display backlight level.
func (d *Display) WriteContrast(ctx context.Context, value byte) error {
	if err := d.writeFrame(ctx, protocol.BuildWriteContrastCmd(value)); err != nil {
		return &CommandError{Op: "write contrast", Err: err}
	}
	return nil
}

// writeFrame sends a command answered by ACK or NAK.
func (d *Display) writeFrame(ctx context.Context, frame []byte) error {
	r, err := d.exchange(ctx, frame, newPending(), d.config.AckTimeout)
	if err != nil {
		return err
	}
	if r.IsNak() {
		return ErrNak
	}
	return nil
}

// logDebug logs a debug message if a logger is configured.
func (d *Display) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Display) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Display) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
