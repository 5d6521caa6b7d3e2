package dht

type DecodeError struct{}

func (e DecodeError) Error() string {
	return "DecodeError"
}

// InvalidChallengeError means a ping id was zero, unknown, already used, or expired.
type InvalidChallengeError struct{}

func (e InvalidChallengeError) Error() string {
	return "InvalidChallengeError"
}

type UnknownNodeError struct{}

func (e UnknownNodeError) Error() string {
	return "UnknownNodeError"
}

type ClosedError struct{}

func (e ClosedError) Error() string {
	return "ClosedError"
}
