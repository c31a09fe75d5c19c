package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound     = errors.New("not found")
	ErrNoBoard      = errors.New("no board selected")
	ErrNoSnapshot   = errors.New("no cached snapshot available")
	ErrInvalidInput = errors.New("invalid input")
)
