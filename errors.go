package ngff

import "errors"

// Errors returned while parsing, validating, reading and writing NGFF images.
// Every error returned by this package wraps one of these and can be tested
// with errors.Is.
var (
	ErrUnsupportedFormat               = errors.New("unsupported zarr format")
	ErrMissingMultiscales              = errors.New("missing multiscales")
	ErrMissingAxes                     = errors.New("missing axes")
	ErrMissingCoordinateTransform      = errors.New("missing coordinate transformations")
	ErrBadTransformOrder               = errors.New("bad coordinate transformation order")
	ErrUnsupportedTransform            = errors.New("unsupported coordinate transformation")
	ErrDimensionMismatch               = errors.New("dimension mismatch")
	ErrDatasetIndexOutOfRange          = errors.New("dataset index out of range")
	ErrInsufficientRequestedDimensions = errors.New("insufficient requested dimensions")
	ErrUnsupportedElementType          = errors.New("unsupported element type")
	ErrUnrecognizedAxis                = errors.New("unrecognized axis")
	ErrInvalidAttributes               = errors.New("invalid attributes")
)
