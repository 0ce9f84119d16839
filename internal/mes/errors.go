package mes

import "errors"

var (
	ErrNotFound      = errors.New("mes: not found")
	ErrAlreadyExists = errors.New("mes: already exists")
	ErrInvalidInput  = errors.New("mes: invalid input")
)
