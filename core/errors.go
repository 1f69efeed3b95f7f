package core

import "errors"

var (
	ErrMissingGenerator     = errors.New("generator must be provided")
	ErrInvalidLengthPenalty = errors.New("invalid length penalty")
	ErrInvalidCriterion     = errors.New("invalid criterion")
)
