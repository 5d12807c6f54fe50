package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSendingReplyFailed   = errors.New("failed to send reply")
	ErrSubmissionInProgress = errors.New("registration is already being submitted")
	ErrMissingName          = errors.New("missing name")
	ErrMissingPhoto         = errors.New("missing photo")
	ErrInvalidBirthday      = errors.New("birthday must be formatted as YYYY-MM-DD")
	ErrUnknownDesign        = errors.New("unknown card design")
	ErrNotRegistered        = errors.New("nothing registered yet, start with /name")
)

// DecodeError is returned when source bytes are not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when the JPEG encoder produces no output.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("error encoding image: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// RenderError is returned when a rendered card cannot be serialised.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("error rendering card: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ImageLoadError is recoverable: renderers fall back to a placeholder.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("error loading image %s: %v", e.Source, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}
