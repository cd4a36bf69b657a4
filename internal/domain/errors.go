package domain

import "errors"

var (
	ErrPresentationNotFound = errors.New("presentation not found")
	ErrEmptyTitle           = errors.New("presentation title is empty")
)
