// Package protocol implements the ViSi-Genie wire format used by 4D Systems
// intelligent display modules.
//
// This package builds command frames and decodes frames received from the
// display. It performs no I/O; see package genie for the session that drives
// a serial port.
//
// # Protocol Overview
//
// Every multi-byte frame ends with a checksum byte that makes the XOR of the
// whole frame zero:
//
//	Read:    [READ_OBJ][OBJECT][INDEX][CHECKSUM]
//	Write:   [WRITE_OBJ][OBJECT][INDEX][MSB][LSB][CHECKSUM]
//	String:  [WRITE_STR][INDEX][LEN][CHARS...][CHECKSUM]
//	Report:  [REPORT_EVENT][OBJECT][INDEX][MSB][LSB][CHECKSUM]
//
// The display acknowledges writes with a single ACK (0x06) or NAK (0x15)
// byte, answers READ_OBJ with a REPORT_OBJ frame, and sends REPORT_EVENT
// frames on its own when the user touches an input object.
//
// # Command Builders
//
//	frame := protocol.BuildWriteObjCmd(protocol.ObjLed, 0, 1)
//	frame, err := protocol.BuildWriteStrCmd(2, "hello")
//
// # Decoding
//
// Decoder is fed one byte at a time, which suits a serial reader loop:
//
//	dec := protocol.NewDecoder()
//	for _, b := range buf[:n] {
//	    reply, ok, err := dec.Feed(b)
//	    ...
//	}
//
// Corrupt frames surface as *ChecksumError (errors.Is(err, ErrChecksum)).
package protocol
