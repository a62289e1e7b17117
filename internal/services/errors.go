package services

import "errors"

// Service errors
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrMissingSource = errors.New("missing source workbook")
)
