package common

// DetailedError is the JSON error envelope returned for failures that
// are not part of the write pipeline's own 401/422 contract (store
// errors, status check failures, bad requests).
type DetailedError struct {
	Status          int    `json:"status"`  // Http status code
	ID              string `json:"id"`      // provided to the caller so we can track down issues
	Code            string `json:"code"`    // stable machine readable code
	Message         string `json:"message"` // understandable message sent to the client
	InternalMessage string `json:"-"`       // used only for logging, never serialized
}

// SetInternalMessage sets the internal message that we will use for logging
func (d DetailedError) SetInternalMessage(internal error) DetailedError {
	d.InternalMessage = internal.Error()
	return d
}
