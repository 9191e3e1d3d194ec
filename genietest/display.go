package genietest

import (
	"errors"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/moffa90/go-genie/protocol"
	"github.com/moffa90/go-genie/transport"
)

// ErrPortClosed is returned by Port methods after Close.
var ErrPortClosed = errors.New("genietest: port closed")

type delayedFrame struct {
	due   time.Time
	frame []byte
}

type objectKey struct {
	object protocol.ObjectType
	index  byte
}

// Display simulates a ViSi-Genie display module.
//
// Host frames written to Port are decoded and answered immediately: READ_OBJ
// with REPORT_OBJ carrying the stored value, writes with ACK, anything
// unrecognised or corrupt with NAK.
type Display struct {
	mu       sync.Mutex
	values   map[objectKey]uint16
	strs     map[byte]string
	magic    map[byte][]byte
	dwords   map[byte][]uint16
	contrast byte
	commands []protocol.Reply
	rejected map[objectKey]bool
	silent   bool
	delay    time.Duration
	hook     func(protocol.Reply)

	outOnce sync.Once
	outq    chan delayedFrame

	rxMu sync.Mutex
	dec  *protocol.Decoder
	port *Port
}

// New returns a simulated display with every object value at zero.
func New() *Display {
	d := &Display{
		values:   make(map[objectKey]uint16),
		strs:     make(map[byte]string),
		magic:    make(map[byte][]byte),
		dwords:   make(map[byte][]uint16),
		rejected: make(map[objectKey]bool),
		contrast: 15,
		dec:      protocol.NewCommandDecoder(),
	}
	d.port = newPort(d)
	return d
}

// Port returns the host end of the simulated serial line.
func (d *Display) Port() *Port {
	return d.port
}

// SetValue sets the value READ_OBJ reports for an object.
func (d *Display) SetValue(object protocol.ObjectType, index byte, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[objectKey{object, index}] = value
}

// Value returns the stored value of an object.
func (d *Display) Value(object protocol.ObjectType, index byte) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[objectKey{object, index}]
}

// Text returns the last text written to a Strings object.
func (d *Display) Text(index byte) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.strs[index]
}

// Contrast returns the last contrast value written.
func (d *Display) Contrast() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contrast
}

// MagicBytes returns the last byte array written to a magic object.
func (d *Display) MagicBytes(index byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.magic[index]...)
}

// MagicWords returns the last word array written to a magic object.
func (d *Display) MagicWords(index byte) []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint16(nil), d.dwords[index]...)
}

// Reject makes the display NAK every command addressed to the object.
func (d *Display) Reject(object protocol.ObjectType, index byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejected[objectKey{object, index}] = true
}

// SetSilent makes the display ignore commands without answering.
func (d *Display) SetSilent(silent bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent = silent
}

// SetReplyDelay makes the display answer commands after delay instead of
// immediately, as a busy module does. Delayed answers keep their order:
// each waits for the ones before it. With no delay answers are pushed
// during Write.
func (d *Display) SetReplyDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// OnCommand registers fn to run after each decoded command and before the
// display answers it. fn may call Emit.
func (d *Display) OnCommand(fn func(protocol.Reply)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hook = fn
}

// Commands returns the decoded host commands in arrival order.
func (d *Display) Commands() []protocol.Reply {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Reply(nil), d.commands...)
}

// EmitEvent sends a REPORT_EVENT frame to the host, as a touch would.
func (d *Display) EmitEvent(object protocol.ObjectType, index byte, value uint16) {
	d.mu.Lock()
	d.values[objectKey{object, index}] = value
	d.mu.Unlock()
	d.port.push(protocol.BuildReportCmd(protocol.CmdReportEvent, object, index, value))
}

// EmitMagic sends a REPORT_MAGIC_BYTES frame to the host.
func (d *Display) EmitMagic(index byte, data []byte) error {
	frame, err := protocol.BuildMagicReportCmd(index, data)
	if err != nil {
		return err
	}
	d.port.push(frame)
	return nil
}

// EmitRaw sends raw bytes to the host.
func (d *Display) EmitRaw(b []byte) {
	d.port.push(append([]byte(nil), b...))
}

// receive decodes host bytes and answers each complete command.
func (d *Display) receive(p []byte) {
	d.rxMu.Lock()
	defer d.rxMu.Unlock()
	for _, b := range p {
		cmd, ok, err := d.dec.Feed(b)
		if err != nil {
			d.answer(protocol.Nak)
			continue
		}
		if ok {
			d.handle(cmd)
		}
	}
}

func (d *Display) handle(cmd protocol.Reply) {
	d.mu.Lock()
	d.commands = append(d.commands, cmd)
	hook := d.hook
	d.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}

	d.mu.Lock()
	if d.silent {
		d.mu.Unlock()
		return
	}
	key := objectKey{cmd.Object, cmd.Index}
	switch cmd.Command {
	case protocol.CmdReadObj, protocol.CmdWriteObj:
		if d.rejected[key] {
			d.mu.Unlock()
			d.answer(protocol.Nak)
			return
		}
	}

	var reply []byte
	switch cmd.Command {
	case protocol.CmdReadObj:
		reply = protocol.BuildReportCmd(protocol.CmdReportObj, cmd.Object, cmd.Index, d.values[key])
	case protocol.CmdWriteObj:
		d.values[key] = cmd.Value
	case protocol.CmdWriteContrast:
		d.contrast = byte(cmd.Value)
	case protocol.CmdWriteStr:
		d.strs[cmd.Index] = string(cmd.Payload)
	case protocol.CmdWriteStrU:
		d.strs[cmd.Index] = string(utf16.Decode(cmd.Words()))
	case protocol.CmdWriteMagicBytes:
		d.magic[cmd.Index] = cmd.Payload
	case protocol.CmdWriteMagicDBytes:
		d.dwords[cmd.Index] = cmd.Words()
	}
	d.mu.Unlock()

	if reply != nil {
		d.send(reply)
		return
	}
	d.answer(protocol.Ack)
}

func (d *Display) answer(b byte) {
	d.mu.Lock()
	silent := d.silent
	d.mu.Unlock()
	if !silent {
		d.send([]byte{b})
	}
}

// send pushes an answer to the host, now or after the reply delay.
func (d *Display) send(frame []byte) {
	d.mu.Lock()
	delay := d.delay
	d.mu.Unlock()
	if delay <= 0 {
		d.port.push(frame)
		return
	}

	d.outOnce.Do(func() {
		d.outq = make(chan delayedFrame, 64)
		go d.deliver()
	})
	d.outq <- delayedFrame{due: time.Now().Add(delay), frame: frame}
}

// deliver pushes queued answers in order once each is due.
func (d *Display) deliver() {
	for {
		var f delayedFrame
		select {
		case f = <-d.outq:
		case <-d.port.done:
			return
		}
		if wait := time.Until(f.due); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-d.port.done:
				t.Stop()
				return
			}
		}
		d.port.push(f.frame)
	}
}

// Port is the host end of a simulated serial line. It satisfies
// transport.Port.
type Port struct {
	sim *Display

	mu      sync.Mutex
	buf     []byte
	timeout time.Duration
	closed  bool

	notify chan struct{}
	done   chan struct{}
}

var _ transport.Port = (*Port)(nil)

func newPort(sim *Display) *Port {
	return &Port{
		sim:    sim,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Read returns buffered display output. It waits up to the read timeout for
// data and returns (0, nil) when none arrives; a timeout of zero or less
// waits indefinitely.
func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	timeout := p.timeout
	p.mu.Unlock()

	var expire <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expire = t.C
	}

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return 0, ErrPortClosed
		}
		if len(p.buf) > 0 {
			n := copy(b, p.buf)
			p.buf = p.buf[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()

		select {
		case <-p.notify:
		case <-p.done:
		case <-expire:
			return 0, nil
		}
	}
}

// Write delivers host bytes to the simulated display.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, ErrPortClosed
	}
	p.sim.receive(b)
	return len(b), nil
}

// SetReadTimeout sets the Read timeout.
func (p *Port) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

// ResetInputBuffer discards unread display output.
func (p *Port) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = nil
	return nil
}

// Close closes the line; pending and future reads fail.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	return nil
}

func (p *Port) push(b []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, b...)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}
