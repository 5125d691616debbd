package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrNoDataProvided = fmt.Errorf("no file data provided")
	ErrInvalidFileID  = fmt.Errorf("invalid file name")
	ErrNotFound       = fmt.Errorf("file not found")
	ErrEmptyFile      = fmt.Errorf("file is empty")
	ErrIOFailure      = fmt.Errorf("i/o failure")
	ErrUnimplemented  = fmt.Errorf("method not implemented")
)
