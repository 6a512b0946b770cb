package bpe

import "errors"

var (
	ErrInvalidConfiguration   = errors.New("invalid configuration")
	ErrUnsupportedFormat      = errors.New("unsupported model format")
	ErrUnknownToken           = errors.New("unknown token id")
	ErrDisallowedSpecialToken = errors.New("disallowed special token")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrTrainingExhausted      = errors.New("training exhausted: no pairs left to merge")
)
