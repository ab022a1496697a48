package media

import "errors"

var (
	// ErrForbidden indicates the actor does not own the entity they tried to
	// mutate.
	ErrForbidden = errors.New("actor does not own entity")
	// ErrSelfSubscription indicates a user tried to subscribe to their own
	// channel.
	ErrSelfSubscription = errors.New("cannot subscribe to own channel")
	// ErrInvalidInput indicates a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUploadFailed indicates the blob store or prober rejected an upload;
	// no graph writes happen when it is returned.
	ErrUploadFailed = errors.New("upload failed")
)
