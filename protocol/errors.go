package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned by the decoder for a leading byte that
	// does not start any known frame. The byte is discarded.
	ErrUnknownCommand = errors.New("protocol: unknown command byte")

	// ErrChecksum matches any *ChecksumError via errors.Is.
	ErrChecksum = errors.New("protocol: checksum mismatch")

	// ErrStringTooLong is returned when a string does not fit the one-byte
	// length field.
	ErrStringTooLong = errors.New("protocol: string longer than 255 characters")

	// ErrPayloadTooLong is returned when a magic payload does not fit the
	// one-byte length field.
	ErrPayloadTooLong = errors.New("protocol: payload longer than 255 elements")

	// ErrInvalidBase is returned for number bases outside 2-36.
	ErrInvalidBase = errors.New("protocol: base must be between 2 and 36")

	// ErrShortFrame is returned by DecodeFrame for truncated input.
	ErrShortFrame = errors.New("protocol: short frame")
)

// ChecksumError describes a frame dropped because of a checksum mismatch.
type ChecksumError struct {
	// Command is the first byte of the dropped frame
	Command byte

	// Expected is the checksum computed over the received bytes
	Expected byte

	// Actual is the checksum byte that was received
	Actual byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch in %s frame: computed 0x%02X, received 0x%02X",
		commandName(e.Command), e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrChecksum) match.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}

// IsChecksumError returns true if the error is a ChecksumError.
func IsChecksumError(err error) bool {
	var ce *ChecksumError
	return errors.As(err, &ce)
}
