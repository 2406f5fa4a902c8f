package apperrors

import "errors"

var (
	ErrMalformedAIResponse = errors.New("AI response contained no usable JSON")
	ErrInvalidPayload      = errors.New("payload does not match extraction type schema")
	ErrUnknownDomain       = errors.New("unknown domain code")
)
