package content

import "errors"

var (
	ErrValidation = errors.New("invalid submission")
	// extractor
	ErrBadPayload = errors.New("could not decode base64 payload")
)
