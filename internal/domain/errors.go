package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidListID   = errors.New("invalid list id")
	ErrInvalidBoardID  = errors.New("invalid board id")
)
