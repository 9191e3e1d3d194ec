package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial"
)

var (
	// ErrUnsupportedBaud is returned for baud rates the display cannot use.
	ErrUnsupportedBaud = errors.New("transport: unsupported baud rate")

	// ErrNoDevice is returned when no device path is given.
	ErrNoDevice = errors.New("transport: no serial device")
)

// DefaultBaud is the rate ViSi-Genie projects are generated with unless
// changed in Workshop.
const DefaultBaud = 115200

// settleDelay gives the display's UART time to see DTR/RTS before the
// first byte.
const settleDelay = 10 * time.Millisecond

var supportedBauds = map[int]struct{}{
	50: {}, 75: {}, 110: {}, 134: {}, 150: {}, 200: {}, 300: {}, 600: {},
	1200: {}, 1800: {}, 2400: {}, 9600: {}, 19200: {}, 38400: {},
	57600: {}, 115200: {}, 230400: {},
}

// SupportedBaud reports whether baud is a rate Open accepts.
func SupportedBaud(baud int) bool {
	_, ok := supportedBauds[baud]
	return ok
}

// SupportedBauds returns the accepted baud rates in ascending order.
func SupportedBauds() []int {
	out := make([]int, 0, len(supportedBauds))
	for b := range supportedBauds {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// Config describes the serial line to open.
type Config struct {
	// Device is the tty path, e.g. /dev/serial0 or /dev/ttyUSB0
	Device string

	// Baud is the line rate; see SupportedBauds
	Baud int
}

// serialPort adapts go.bug.st/serial.Port to Port.
type serialPort struct {
	serial.Port
	device string
}

func (p *serialPort) String() string { return p.device }

// Open opens and configures the serial device for ViSi-Genie: 8 data bits,
// no parity, one stop bit, DTR and RTS asserted, buffers flushed.
func Open(cfg Config) (Port, error) {
	if strings.TrimSpace(cfg.Device) == "" {
		return nil, ErrNoDevice
	}
	if !SupportedBaud(cfg.Baud) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBaud, cfg.Baud)
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}

	if err := p.SetDTR(true); err != nil {
		p.Close()
		return nil, fmt.Errorf("set DTR on %s: %w", cfg.Device, err)
	}
	if err := p.SetRTS(true); err != nil {
		p.Close()
		return nil, fmt.Errorf("set RTS on %s: %w", cfg.Device, err)
	}
	time.Sleep(settleDelay)

	port := &serialPort{Port: p, device: cfg.Device}
	if err := Flush(port); err != nil {
		p.Close()
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	return port, nil
}

// List returns the serial ports present on the system.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
