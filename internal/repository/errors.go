package repository

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrAlreadyResponded = errors.New("user already responded to post")
	ErrInvalidInput     = errors.New("invalid input")
)
