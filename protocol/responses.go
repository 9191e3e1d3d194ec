package protocol

import "fmt"

// Direction selects which frame set a Decoder understands.
type Direction int

const (
	// FromDisplay decodes ACK, NAK and report frames (host side)
	FromDisplay Direction = iota

	// ToDisplay decodes command frames (display side, used by simulators)
	ToDisplay
)

// Decoder reassembles frames from a byte stream one byte at a time.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	dir  Direction
	buf  []byte
	need int // total frame length once known, 0 while unknown
	unit int // payload bytes per LEN unit for variable frames
}

// NewDecoder returns a Decoder for frames sent by the display.
func NewDecoder() *Decoder {
	return &Decoder{dir: FromDisplay, buf: make([]byte, 0, MagicHeaderSize+2*MaxPayloadLen+1)}
}

// NewCommandDecoder returns a Decoder for frames sent by the host.
func NewCommandDecoder() *Decoder {
	return &Decoder{dir: ToDisplay, buf: make([]byte, 0, MagicHeaderSize+2*MaxPayloadLen+1)}
}

// Feed consumes one byte. It returns the decoded reply and true when b
// completes a frame. A non-nil error means the current byte or frame was
// dropped; the decoder is ready for the next frame either way.
func (d *Decoder) Feed(b byte) (Reply, bool, error) {
	if len(d.buf) == 0 {
		if d.dir == FromDisplay && (b == Ack || b == Nak) {
			return Reply{Command: b}, true, nil
		}
		size, unit, ok := frameShape(d.dir, b)
		if !ok {
			return Reply{}, false, fmt.Errorf("%w 0x%02X", ErrUnknownCommand, b)
		}
		d.need, d.unit = size, unit
		d.buf = append(d.buf, b)
		return Reply{}, false, nil
	}

	d.buf = append(d.buf, b)
	if d.need == 0 && len(d.buf) == MagicHeaderSize {
		d.need = MagicHeaderSize + int(d.buf[2])*d.unit + 1
	}
	if d.need == 0 || len(d.buf) < d.need {
		return Reply{}, false, nil
	}

	frame := d.buf
	d.Reset()
	if !VerifyChecksum(frame) {
		return Reply{}, false, &ChecksumError{
			Command:  frame[0],
			Expected: Checksum(frame[:len(frame)-1]),
			Actual:   frame[len(frame)-1],
		}
	}
	return parseFrame(frame), true, nil
}

// Reset drops any partially decoded frame.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.need = 0
	d.unit = 0
}

// Pending reports whether a frame is partially decoded.
func (d *Decoder) Pending() bool {
	return len(d.buf) > 0
}

// DecodeFrame decodes exactly one frame sent by the display.
func DecodeFrame(frame []byte) (Reply, error) {
	return decodeOne(NewDecoder(), frame)
}

// DecodeCommand decodes exactly one frame sent by the host.
func DecodeCommand(frame []byte) (Reply, error) {
	return decodeOne(NewCommandDecoder(), frame)
}

func decodeOne(d *Decoder, frame []byte) (Reply, error) {
	for i, b := range frame {
		r, done, err := d.Feed(b)
		if err != nil {
			return Reply{}, err
		}
		if done {
			if i != len(frame)-1 {
				return Reply{}, fmt.Errorf("protocol: %d trailing bytes after frame", len(frame)-1-i)
			}
			return r, nil
		}
	}
	return Reply{}, ErrShortFrame
}

// frameShape returns the fixed frame size for cmd, or size 0 and the bytes
// per LEN unit for variable-length frames.
func frameShape(dir Direction, cmd byte) (size, unit int, ok bool) {
	if dir == FromDisplay {
		switch cmd {
		case CmdReportObj, CmdReportEvent:
			return ReportFrameSize, 0, true
		case CmdReportMagicBytes:
			return 0, 1, true
		case CmdReportMagicDBytes:
			return 0, 2, true
		}
		return 0, 0, false
	}

	switch cmd {
	case CmdReadObj:
		return ReadFrameSize, 0, true
	case CmdWriteObj:
		return WriteFrameSize, 0, true
	case CmdWriteContrast:
		return ContrastFrameSize, 0, true
	case CmdWriteStr, CmdWriteMagicBytes:
		return 0, 1, true
	case CmdWriteStrU, CmdWriteMagicDBytes:
		return 0, 2, true
	}
	return 0, 0, false
}

// parseFrame maps a checksum-verified frame onto a Reply.
func parseFrame(frame []byte) Reply {
	r := Reply{Command: frame[0]}
	switch r.Command {
	case CmdReportObj, CmdReportEvent, CmdWriteObj:
		r.Object = ObjectType(frame[1])
		r.Index = frame[2]
		r.Value = uint16(frame[3])<<8 | uint16(frame[4])
	case CmdReadObj:
		r.Object = ObjectType(frame[1])
		r.Index = frame[2]
	case CmdWriteContrast:
		r.Value = uint16(frame[1])
	default:
		r.Index = frame[1]
		payload := frame[MagicHeaderSize : len(frame)-1]
		r.Payload = append([]byte(nil), payload...)
	}
	return r
}
