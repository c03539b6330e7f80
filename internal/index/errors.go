package index

import "errors"

// ErrIndexUnavailable indicates no usable index exists at the configured
// location. Callers should instruct the user to run the ingest step.
var ErrIndexUnavailable = errors.New("no index available: run ingest first")

// ErrVersionMismatch indicates the on-disk index was written by an
// incompatible version of this program.
var ErrVersionMismatch = errors.New("index version mismatch")

// ErrVectorLengthMismatch indicates two vectors have different dimensions.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")
