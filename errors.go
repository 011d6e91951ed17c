package lzma

import "errors"

var (
	ErrAllocationFailed   = errors.New("lzma: allocation failed")
	ErrInvalidProperties  = errors.New("lzma: invalid properties")
	ErrInputExhausted     = errors.New("lzma: input exhausted")
	ErrDistanceOutOfRange = errors.New("lzma: distance out of range")
	ErrOutputOverflow     = errors.New("lzma: output overflow")
	ErrFormatMismatch     = errors.New("lzma: format mismatch")

	ErrClosed        = errors.New("lzma: decoder closed")
	ErrInvalidHandle = errors.New("lzma: invalid handle")
)
