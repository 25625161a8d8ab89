package domain

import "errors"

// Domain errors
var (
	ErrFileRequired        = errors.New("no file provided")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyFile           = errors.New("file is empty")
	ErrMalformedEngineJSON = errors.New("engine output is not a JSON object")
)
