package model

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrLinkNotFound    = errors.New("link not found")
	ErrInvalidUsername = errors.New("username must not be empty")
)
