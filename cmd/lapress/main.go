// Package main provides the lapress CLI: inspect and edit menus, meta rows,
// users and the type registry of a LaPress database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/lapress/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(os.Stderr, "lapress:", err)
	if isUserError(err) {
		return exitUserError
	}
	return exitSysError
}

// userError marks a failure caused by the arguments rather than the system.
type userError struct {
	err error
}

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return userError{err: fmt.Errorf(format, args...)}
}

func isUserError(err error) bool {
	var ue userError
	switch {
	case errors.As(err, &ue):
		return true
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrDuplicate):
		return true
	}
	return false
}
