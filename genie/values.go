package genie

import (
	"context"

	"github.com/moffa90/go-genie/protocol"
)

// WriteMagicBytes sends a byte array to the magic object at magicIndex.
func (d *Display) WriteMagicBytes(ctx context.Context, magicIndex byte, data []byte) error {
	frame, err := protocol.BuildWriteMagicBytesCmd(magicIndex, data)
	if err == nil {
		err = d.writeFrame(ctx, frame)
	}
	if err != nil {
		return &CommandError{Op: "write magic bytes", Index: magicIndex, Err: err}
	}
	return nil
}

// WriteMagicDoubleBytes sends a 16-bit word array to the magic object at
// magicIndex.
func (d *Display) WriteMagicDoubleBytes(ctx context.Context, magicIndex byte, words []uint16) error {
	frame, err := protocol.BuildWriteMagicDBytesCmd(magicIndex, words)
	if err == nil {
		err = d.writeFrame(ctx, frame)
	}
	if err != nil {
		return &CommandError{Op: "write magic double bytes", Index: magicIndex, Err: err}
	}
	return nil
}

// WriteShortToIntLedDigits writes a 16-bit signed value to an internal LED
// digits object.
func (d *Display) WriteShortToIntLedDigits(ctx context.Context, index byte, v int16) error {
	return d.WriteObject(ctx, protocol.ObjILedDigitsL, index, uint16(v))
}

// WriteLongToIntLedDigits writes a 32-bit signed value to an internal LED
// digits object configured for long values.
func (d *Display) WriteLongToIntLedDigits(ctx context.Context, index byte, v int32) error {
	hi, lo := protocol.SplitWords(uint32(v))
	return d.writeWords(ctx, index, hi, lo)
}

// WriteFloatToIntLedDigits writes a float to an internal LED digits object
// configured for float values.
func (d *Display) WriteFloatToIntLedDigits(ctx context.Context, index byte, f float32) error {
	hi, lo := protocol.FloatWords(f)
	return d.writeWords(ctx, index, hi, lo)
}

// writeWords writes the high word then the low word. The low word is not
// sent if the high word fails.
func (d *Display) writeWords(ctx context.Context, index byte, hi, lo uint16) error {
	if err := d.WriteObject(ctx, protocol.ObjILedDigitsH, index, hi); err != nil {
		return err
	}
	return d.WriteObject(ctx, protocol.ObjILedDigitsL, index, lo)
}
