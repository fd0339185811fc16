package balance

import "errors"

// ErrInvalidInput is returned for an empty roster, a non-finite score or a
// non-positive group size or iteration count.
var ErrInvalidInput = errors.New("invalid input")

// ErrDegenerateGroup is returned when a partition would contain an empty group.
// Requests for groups larger than the roster are rejected with this error.
var ErrDegenerateGroup = errors.New("degenerate group")
