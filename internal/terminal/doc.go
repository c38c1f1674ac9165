// Package terminal wraps a shell process attached to a pseudo-terminal.
//
// A Process owns exactly one child and one pty master. Output is consumed
// through Read (stdout and stderr arrive merged, in order, with arbitrary
// chunking), input goes through Write, and geometry changes through Resize.
// Done is closed exactly once when the child ends, whether it exited on its
// own or was stopped by Terminate.
//
// Once terminated or exited the handle is dead: Write and Resize fail with
// ErrTerminated and Terminate becomes a no-op.
//
// Example Usage:
//
//	proc, err := terminal.Spawn("bash", nil, terminal.Options{Cols: 80, Rows: 24})
//	if err != nil {
//		return err
//	}
//	defer proc.Terminate()
//	proc.Write([]byte("ls\n"))
//	proc.Resize(120, 40)
//	<-proc.Done()
package terminal
