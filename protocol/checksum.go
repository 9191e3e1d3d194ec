package protocol

// Checksum returns the XOR of all bytes in data. Appending the result to a
// frame makes the XOR of the whole frame zero.
func Checksum(data []byte) byte {
	var cs byte
	for _, b := range data {
		cs ^= b
	}
	return cs
}

// VerifyChecksum reports whether frame, including its trailing checksum
// byte, XORs to zero. Empty frames are never valid.
func VerifyChecksum(frame []byte) bool {
	return len(frame) > 0 && Checksum(frame) == 0
}

// appendChecksum appends the checksum of frame to frame.
func appendChecksum(frame []byte) []byte {
	return append(frame, Checksum(frame))
}
