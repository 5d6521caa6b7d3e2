package encrypted

type MalformedPacketError struct{}

func (e MalformedPacketError) Error() string {
	return "MalformedPacketError"
}

type PacketTooLargeError struct{}

func (e PacketTooLargeError) Error() string {
	return "PacketTooLargeError"
}

type TruncatedPayloadError struct{}

func (e TruncatedPayloadError) Error() string {
	return "TruncatedPayloadError"
}

// DecryptionFailedError covers a wrong key, a wrong nonce, and tampering alike.
type DecryptionFailedError struct{}

func (e DecryptionFailedError) Error() string {
	return "DecryptionFailedError"
}
