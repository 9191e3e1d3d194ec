package transport

import (
	"io"
	"time"
)

// Port is the byte stream a display session runs over.
//
// Read must honour the timeout set with SetReadTimeout and return (0, nil)
// when it expires with no data, as go.bug.st/serial ports do.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long Read blocks waiting for the first byte.
	SetReadTimeout(t time.Duration) error
}

// InputResetter is implemented by ports that can discard unread input.
type InputResetter interface {
	ResetInputBuffer() error
}

// OutputResetter is implemented by ports that can discard unsent output.
type OutputResetter interface {
	ResetOutputBuffer() error
}

// Flush discards any buffered input and output on p, if p supports it.
func Flush(p Port) error {
	if r, ok := p.(InputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return err
		}
	}
	if r, ok := p.(OutputResetter); ok {
		if err := r.ResetOutputBuffer(); err != nil {
			return err
		}
	}
	return nil
}
