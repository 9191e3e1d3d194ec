package protocol

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// BuildReadObjCmd constructs a READ_OBJ frame asking the display for the
// current value of an object.
//
// Frame structure:
//
//	[CMD][OBJECT][INDEX][CHECKSUM]
func BuildReadObjCmd(object ObjectType, index byte) []byte {
	frame := make([]byte, 0, ReadFrameSize)
	frame = append(frame, CmdReadObj, byte(object), index)
	return appendChecksum(frame)
}

// BuildWriteObjCmd constructs a WRITE_OBJ frame setting an object value.
//
// Frame structure:
//
//	[CMD][OBJECT][INDEX][MSB][LSB][CHECKSUM]
func BuildWriteObjCmd(object ObjectType, index byte, value uint16) []byte {
	frame := make([]byte, 0, WriteFrameSize)
	frame = append(frame, CmdWriteObj, byte(object), index, byte(value>>8), byte(value))
	return appendChecksum(frame)
}

// BuildWriteContrastCmd constructs a WRITE_CONTRAST frame. Most modules
// treat 0 as backlight off and 15 as full brightness.
//
// Frame structure:
//
//	[CMD][VALUE][CHECKSUM]
func BuildWriteContrastCmd(value byte) []byte {
	frame := make([]byte, 0, ContrastFrameSize)
	frame = append(frame, CmdWriteContrast, value)
	return appendChecksum(frame)
}

// BuildWriteStrCmd constructs a WRITE_STR frame. The string is sent
// byte-for-byte; it must not exceed MaxPayloadLen bytes.
//
// Frame structure:
//
//	[CMD][INDEX][LEN][CHARS...][CHECKSUM]
func BuildWriteStrCmd(index byte, s string) ([]byte, error) {
	if len(s) > MaxPayloadLen {
		return nil, ErrStringTooLong
	}

	frame := make([]byte, 0, MagicHeaderSize+len(s)+1)
	frame = append(frame, CmdWriteStr, index, byte(len(s)))
	frame = append(frame, s...)
	return appendChecksum(frame), nil
}

// BuildWriteStrUCmd constructs a WRITE_STRU frame. The string is converted
// to UTF-16 and each code unit is sent high byte first. LEN counts code
// units, so characters outside the BMP take two.
//
// Frame structure:
//
//	[CMD][INDEX][LEN][HI][LO]...[CHECKSUM]
func BuildWriteStrUCmd(index byte, s string) ([]byte, error) {
	units := utf16.Encode([]rune(s))
	if len(units) > MaxPayloadLen {
		return nil, ErrStringTooLong
	}

	frame := make([]byte, 0, MagicHeaderSize+2*len(units)+1)
	frame = append(frame, CmdWriteStrU, index, byte(len(units)))
	frame = appendWords(frame, units)
	return appendChecksum(frame), nil
}

// BuildWriteMagicBytesCmd constructs a WRITE_MAGIC_BYTES frame for a magic
// object.
//
// Frame structure:
//
//	[CMD][MAGIC_INDEX][LEN][BYTES...][CHECKSUM]
func BuildWriteMagicBytesCmd(magicIndex byte, data []byte) ([]byte, error) {
	if len(data) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}

	frame := make([]byte, 0, MagicHeaderSize+len(data)+1)
	frame = append(frame, CmdWriteMagicBytes, magicIndex, byte(len(data)))
	frame = append(frame, data...)
	return appendChecksum(frame), nil
}

// BuildWriteMagicDBytesCmd constructs a WRITE_MAGIC_DBYTES frame. LEN is the
// number of words, each sent high byte first.
//
// Frame structure:
//
//	[CMD][MAGIC_INDEX][LEN][HI][LO]...[CHECKSUM]
func BuildWriteMagicDBytesCmd(magicIndex byte, words []uint16) ([]byte, error) {
	if len(words) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}

	frame := make([]byte, 0, MagicHeaderSize+2*len(words)+1)
	frame = append(frame, CmdWriteMagicDBytes, magicIndex, byte(len(words)))
	frame = appendWords(frame, words)
	return appendChecksum(frame), nil
}

// BuildReportCmd constructs a REPORT_OBJ or REPORT_EVENT frame as the
// display would send it. Used by simulators and tests.
func BuildReportCmd(cmd byte, object ObjectType, index byte, value uint16) []byte {
	frame := make([]byte, 0, ReportFrameSize)
	frame = append(frame, cmd, byte(object), index, byte(value>>8), byte(value))
	return appendChecksum(frame)
}

// BuildMagicReportCmd constructs a REPORT_MAGIC_BYTES frame as the display
// would send it.
func BuildMagicReportCmd(magicIndex byte, data []byte) ([]byte, error) {
	if len(data) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	frame := make([]byte, 0, MagicHeaderSize+len(data)+1)
	frame = append(frame, CmdReportMagicBytes, magicIndex, byte(len(data)))
	frame = append(frame, data...)
	return appendChecksum(frame), nil
}

// BuildMagicDBytesReportCmd constructs a REPORT_MAGIC_DBYTES frame as the
// display would send it.
func BuildMagicDBytesReportCmd(magicIndex byte, words []uint16) ([]byte, error) {
	if len(words) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	frame := make([]byte, 0, MagicHeaderSize+2*len(words)+1)
	frame = append(frame, CmdReportMagicDBytes, magicIndex, byte(len(words)))
	frame = appendWords(frame, words)
	return appendChecksum(frame), nil
}

func appendWords(frame []byte, words []uint16) []byte {
	for _, w := range words {
		frame = append(frame, byte(w>>8), byte(w))
	}
	return frame
}

// FormatInt renders n in the given base with upper-case digits and a
// leading '-' for negative numbers, the text WriteStr helpers send.
func FormatInt(n int64, base int) (string, error) {
	if base < 2 || base > 36 {
		return "", ErrInvalidBase
	}
	return strings.ToUpper(strconv.FormatInt(n, base)), nil
}

// FormatFloat renders f with precision significant digits in %g style.
// A precision below 1 is treated as 1.
func FormatFloat(f float32, precision int) string {
	if precision < 1 {
		precision = 1
	}
	return strconv.FormatFloat(float64(f), 'g', precision, 32)
}

// SplitWords splits a 32-bit value into the high and low words written to
// the ILED_DIGITS_H and ILED_DIGITS_L objects.
func SplitWords(v uint32) (hi, lo uint16) {
	return uint16(v >> 16), uint16(v)
}

// FloatWords returns the IEEE-754 single precision bit pattern of f split
// into high and low words.
func FloatWords(f float32) (hi, lo uint16) {
	return SplitWords(math.Float32bits(f))
}
