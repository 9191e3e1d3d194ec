package genie

import (
	"context"

	"github.com/moffa90/go-genie/protocol"
)

// WriteString writes s byte-for-byte to the Strings object at index.
// Strings longer than 255 bytes are rejected before anything is sent.
func (d *Display) WriteString(ctx context.Context, index byte, s string) error {
	frame, err := protocol.BuildWriteStrCmd(index, s)
	if err == nil {
		err = d.writeFrame(ctx, frame)
	}
	if err != nil {
		return &CommandError{Op: "write string", Object: protocol.ObjStrings, Index: index, HasTarget: true, Err: err}
	}
	return nil
}

// WriteStringUnicode writes s as UTF-16 to the Strings object at index. The
// Strings object must have been created as a Unicode object in Workshop.
func (d *Display) WriteStringUnicode(ctx context.Context, index byte, s string) error {
	frame, err := protocol.BuildWriteStrUCmd(index, s)
	if err == nil {
		err = d.writeFrame(ctx, frame)
	}
	if err != nil {
		return &CommandError{Op: "write unicode string", Object: protocol.ObjStrings, Index: index, HasTarget: true, Err: err}
	}
	return nil
}

// WriteStringBase writes n in the given base (2-36) to a Strings object.
func (d *Display) WriteStringBase(ctx context.Context, index byte, n int64, base int) error {
	s, err := protocol.FormatInt(n, base)
	if err != nil {
		return &CommandError{Op: "write string", Object: protocol.ObjStrings, Index: index, HasTarget: true, Err: err}
	}
	return d.WriteString(ctx, index, s)
}

// WriteStringDec writes n in decimal to a Strings object.
func (d *Display) WriteStringDec(ctx context.Context, index byte, n int64) error {
	return d.WriteStringBase(ctx, index, n, 10)
}

// WriteStringHex writes n in upper-case hexadecimal to a Strings object.
func (d *Display) WriteStringHex(ctx context.Context, index byte, n int64) error {
	return d.WriteStringBase(ctx, index, n, 16)
}

// WriteStringOct writes n in octal to a Strings object.
func (d *Display) WriteStringOct(ctx context.Context, index byte, n int64) error {
	return d.WriteStringBase(ctx, index, n, 8)
}

// WriteStringBin writes n in binary to a Strings object.
func (d *Display) WriteStringBin(ctx context.Context, index byte, n int64) error {
	return d.WriteStringBase(ctx, index, n, 2)
}

// WriteStringFloat writes f with precision significant digits to a Strings
// object.
func (d *Display) WriteStringFloat(ctx context.Context, index byte, f float32, precision int) error {
	return d.WriteString(ctx, index, protocol.FormatFloat(f, precision))
}
