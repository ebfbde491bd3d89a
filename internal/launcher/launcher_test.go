package launcher

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestStart_ExposesSeparatePipes_When_ChildWritesBoth(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	proc, err := Start(context.Background(), sh, []string{"-c", "printf out; printf err >&2"})
	require.NoError(t, err)
	assert.Positive(t, proc.Pid())

	stdout, err := io.ReadAll(proc.Stdout)
	require.NoError(t, err)
	stderr, err := io.ReadAll(proc.Stderr)
	require.NoError(t, err)

	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "out", string(stdout))
	assert.Equal(t, "err", string(stderr))
}

func TestStart_ProvidesNoInput_When_ChildReadsStdin(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	proc, err := Start(context.Background(), sh, []string{"-c", "cat; echo done"})
	require.NoError(t, err)

	stdout, err := io.ReadAll(proc.Stdout)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, proc.Stderr)

	_, err = proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(stdout))
}

func TestWait_ReturnsExitCode_When_ChildFails(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	proc, err := Start(context.Background(), sh, []string{"-c", "exit 3"})
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, proc.Stdout)
	_, _ = io.Copy(io.Discard, proc.Stderr)

	code, err := proc.Wait()
	assert.Equal(t, 3, code)

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestStart_ReturnsNotFound_When_BinaryMissing(t *testing.T) {
	t.Parallel()

	proc, err := Start(context.Background(), "dlpstream-no-such-binary", nil)
	require.Error(t, err)
	assert.Nil(t, proc)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.True(t, IsCommandNotFound(err))
	assert.Equal(t, 127, ExitCode(err))
}

func TestStart_KillsChild_When_ContextCancelled(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	proc, err := Start(ctx, sh, []string{"-c", "sleep 30"})
	require.NoError(t, err)

	start := time.Now()
	cancel()
	_, _ = io.Copy(io.Discard, proc.Stdout)
	_, _ = io.Copy(io.Discard, proc.Stderr)

	code, err := proc.Wait()
	require.Error(t, err)
	assert.NotZero(t, code)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExitCode_MapsErrors_When_NotExitError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("pipe broke")))
	assert.False(t, IsCommandNotFound(nil))
}

func TestWait_ClosesOutput_When_GrandchildKeepsPipesOpen(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	proc, err := Start(context.Background(), sh, []string{"-c", "(sleep 4 &) ; echo done"})
	require.NoError(t, err)

	start := time.Now()
	stdout, err := io.ReadAll(proc.Stdout)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, proc.Stderr)

	code, err := proc.Wait()
	assert.ErrorIs(t, err, exec.ErrWaitDelay)
	assert.Equal(t, 0, code)
	assert.Equal(t, "done\n", string(stdout))
	assert.Less(t, time.Since(start), 3500*time.Millisecond)
}

func TestWait_Returns_When_ReaderStopsEarly(t *testing.T) {
	t.Parallel()
	sh := requireShell(t)

	proc, err := Start(context.Background(), sh, []string{"-c", "yes | head -c 1000000"})
	require.NoError(t, err)

	buf := make([]byte, 16)
	_, err = io.ReadFull(proc.Stdout, buf)
	require.NoError(t, err)
	require.NoError(t, proc.Stdout.Close())
	_, _ = io.Copy(io.Discard, proc.Stderr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = proc.Wait()
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Wait blocked after the reader closed stdout")
	}
}
