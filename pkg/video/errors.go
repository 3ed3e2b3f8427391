package video

import "errors"

var (
	ErrFormatUnsupported = errors.New("unsupported pixel format")
	ErrInvalidFrame      = errors.New("invalid frame")
	ErrAllocation        = errors.New("texture allocation failed")
	ErrDisposed          = errors.New("video output is disposed")
)
