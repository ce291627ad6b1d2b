package host

import "context"

// Runner executes one command line at a time on a remote host. Run blocks
// until the command finishes or ctx expires. A non-zero exit status is not
// an error: err covers transport and cancellation failures only, so a
// caller always gets stdout, stderr and the exit code when the command
// actually ran.
type Runner interface {
	Run(ctx context.Context, command string) (stdout, stderr string, exitCode int, err error)
	Close() error
}
