package terminal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpawn is matched by every error returned from Spawn.
	ErrSpawn = errors.New("terminal: spawn failed")

	// ErrTerminated is returned by Write and Resize on a dead handle.
	ErrTerminated = errors.New("terminal: process terminated")

	// ErrInvalidDimensions is returned by Resize for sizes outside 1..MaxDimension.
	ErrInvalidDimensions = errors.New("terminal: invalid dimensions")
)

// SpawnError describes a shell that could not be started.
type SpawnError struct {
	Command string
	Args    []string
	Err     error
}

func (e *SpawnError) Error() string {
	cmd := e.Command
	if len(e.Args) > 0 {
		cmd += " " + strings.Join(e.Args, " ")
	}
	return fmt.Sprintf("terminal: spawn %q: %v", cmd, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSpawn) match any SpawnError.
func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }
