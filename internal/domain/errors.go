package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrKeyNotFound     = errors.New("key not found")
)

// TransportFailureText is the fixed string shown in place of an assistant
// turn that failed for transport reasons. Cancellations never use it.
const TransportFailureText = "Sorry, something went wrong while answering. Please try again."
