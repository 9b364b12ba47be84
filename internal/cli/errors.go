package cli

import "errors"

// ErrFileNotFound indicates the input file passed to a command does not
// exist.
var ErrFileNotFound = errors.New("file not found")
