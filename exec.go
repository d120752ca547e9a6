package htmldoc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/alnah/go-htmldoc/internal/process"
)

// waitDelay bounds how long Run waits for output pipes after a kill,
// in case a grandchild still holds them open.
const waitDelay = 2 * time.Second

// CommandRunner runs an external program with an argument slice, never
// through a shell, and returns its captured output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. The child runs in its
// own process group, and the whole group is killed when ctx is done.
type ExecRunner struct{}

// Run starts name with args and waits for it. When ctx ends first, the
// returned error wraps ctx.Err().
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- binary located by EngineLocator
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("%s: %w", name, ctxErr)
	}
	return stdout.String(), stderr.String(), err
}
