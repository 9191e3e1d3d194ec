package protocol

// Version is the version of the geniePi interface this library replaces.
const Version = "1.0"

// Single-byte replies sent by the display.
const (
	// Ack confirms a write command was accepted
	Ack = 0x06

	// Nak rejects a command (bad checksum, unknown object, ...)
	Nak = 0x15
)

// Command codes. Commands 0-4, 8 and 9 travel host to display; 5, 7, 10
// and 11 are reports sent by the display.
const (
	// CmdReadObj requests the current value of an object
	CmdReadObj = 0x00

	// CmdWriteObj sets the value of an object
	CmdWriteObj = 0x01

	// CmdWriteStr writes an ASCII string to a Strings object
	CmdWriteStr = 0x02

	// CmdWriteStrU writes a UTF-16 string to a Strings object
	CmdWriteStrU = 0x03

	// CmdWriteContrast sets the backlight level
	CmdWriteContrast = 0x04

	// CmdReportObj carries the answer to CmdReadObj
	CmdReportObj = 0x05

	// CmdReportEvent is sent when the user interacts with an input object
	CmdReportEvent = 0x07

	// CmdWriteMagicBytes sends a byte array to a magic object
	CmdWriteMagicBytes = 0x08

	// CmdWriteMagicDBytes sends a 16-bit word array to a magic object
	CmdWriteMagicDBytes = 0x09

	// CmdReportMagicBytes carries a byte array from a magic object
	CmdReportMagicBytes = 0x0A

	// CmdReportMagicDBytes carries a word array from a magic object
	CmdReportMagicDBytes = 0x0B
)

// Frame sizes.
const (
	// ReportFrameSize is the size of REPORT_OBJ and REPORT_EVENT frames:
	// CMD(1) + OBJECT(1) + INDEX(1) + MSB(1) + LSB(1) + CHECKSUM(1)
	ReportFrameSize = 6

	// ReadFrameSize is the size of a READ_OBJ frame
	ReadFrameSize = 4

	// WriteFrameSize is the size of a WRITE_OBJ frame
	WriteFrameSize = 6

	// ContrastFrameSize is the size of a WRITE_CONTRAST frame
	ContrastFrameSize = 3

	// MagicHeaderSize is CMD(1) + INDEX(1) + LEN(1) for string and magic frames
	MagicHeaderSize = 3

	// MaxPayloadLen is the largest length a one-byte length field can carry
	MaxPayloadLen = 255
)

// SyncProbe is the byte sent while waiting for the display's input
// sequencer to settle. The display answers any stray byte with a NAK.
const SyncProbe = 'X'
