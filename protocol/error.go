// Defines constants representing the types of errors that may occur
// while a client resolves an identity, decodes a node's response, or
// checks a key-link chain.

package protocol

// An ErrorCode is a number indicating the type of error that occurred
// while resolving an identity or routing a request.
type ErrorCode int

// Every ErrorCode is a sentinel error: callers compare it with
// errors.Is after it has been wrapped with additional context.
const (
	ErrMalformedResponse ErrorCode = iota + 10
	ErrMalformedLink
	ErrOwnerNotFound
	ErrNoStorageProvider
	ErrChainRollback
	ErrBadSignature
	ErrBadKeyChange
	ErrUsernameMismatch
)

var errorMessages = map[ErrorCode]string{
	ErrMalformedResponse: "[keylink] Malformed response",
	ErrMalformedLink:     "[keylink] Malformed key-link",
	ErrOwnerNotFound:     "[keylink] Owner has no registered username",
	ErrNoStorageProvider: "[keylink] Latest link declares no storage provider",
	ErrChainRollback:     "[keylink] Chain does not extend the pinned chain",
	ErrBadSignature:      "[keylink] Invalid claim signature",
	ErrBadKeyChange:      "[keylink] Invalid key change proof",
	ErrUsernameMismatch:  "[keylink] Chain links claim different usernames",
}

// Error returns the error message corresponding to the error code e.
func (e ErrorCode) Error() string {
	msg, ok := errorMessages[e]
	if !ok {
		return "[keylink] Unknown error"
	}
	return msg
}
