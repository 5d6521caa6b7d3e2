package session

type ClosedError struct{}

func (e ClosedError) Error() string {
	return "ClosedError"
}

type DeadlineError struct{}

func (e DeadlineError) Error() string {
	return "DeadlineError"
}

type OversizedMessageError struct{}

func (e OversizedMessageError) Error() string {
	return "OversizedMessageError"
}

// PeerNotFoundError means there is no session with the destination yet.
type PeerNotFoundError struct{}

func (e PeerNotFoundError) Error() string {
	return "PeerNotFoundError"
}

type BadAddressError struct{}

func (e BadAddressError) Error() string {
	return "BadAddressError"
}
