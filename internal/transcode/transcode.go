package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// killGrace is how long a terminated group gets before SIGKILL.
	killGrace = 5 * time.Second

	// stderrTail is how many trailing bytes of stderr are kept.
	stderrTail = 8 << 10
)

// Result is the outcome of one transcoder run.
//
// ExitCode is 0 on success, positive for an ordinary failure and negative
// when the process was killed.
type Result struct {
	ExitCode int
	Stderr   string
}

// Killed reports whether the run ended because the process was terminated.
func (r Result) Killed() bool {
	return r.ExitCode < 0
}

// Process is a running transcoder.
type Process interface {
	// Wait blocks until the process exits.
	Wait() Result

	// Terminate stops the process and its whole group. It is safe to call
	// more than once and after exit.
	Terminate() error
}

// Transcoder starts remux jobs.
type Transcoder interface {
	Start(ctx context.Context, manifestURL, outPath string) (Process, error)
}

// FFmpeg is a Transcoder backed by the ffmpeg binary.
type FFmpeg struct {
	binary string
}

// NewFFmpeg creates an FFmpeg transcoder using binary ("ffmpeg" when empty).
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

// Args returns the ffmpeg argument list for one remux: overwrite output,
// stream copy, and a protocol whitelist limited to file, http(s), tcp and tls.
func (f *FFmpeg) Args(manifestURL, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", "error",
		"-protocol_whitelist", "file,http,https,tcp,tls",
		"-allowed_extensions", "ALL",
		"-i", manifestURL,
		"-c", "copy",
		outPath,
	}
}

// Start launches ffmpeg. Cancelling ctx terminates the process group.
func (f *FFmpeg) Start(ctx context.Context, manifestURL, outPath string) (Process, error) {
	return startCommand(ctx, f.binary, f.Args(manifestURL, outPath)...)
}

type process struct {
	cmd        *exec.Cmd
	stderr     *tailBuffer
	terminated atomic.Bool
	exited     atomic.Bool

	waitOnce sync.Once
	result   Result
}

func startCommand(ctx context.Context, name string, args ...string) (*process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := newTailBuffer(stderrTail)
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	p := &process{cmd: cmd, stderr: stderr}
	cmd.Cancel = p.Terminate

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return p, nil
}

func (p *process) Wait() Result {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.exited.Store(true)

		code := 0
		switch {
		case p.cmd.ProcessState != nil:
			code = p.cmd.ProcessState.ExitCode()
		case err != nil:
			code = -1
		}

		var exitErr *exec.ExitError
		if err != nil && code == 0 && !errors.As(err, &exitErr) {
			// Wait failed without an exit status, e.g. a stderr copy error.
			code = 1
		}
		// ffmpeg traps SIGTERM and exits 255; report that as a kill.
		if p.terminated.Load() && code != 0 {
			code = -1
		}

		p.result = Result{ExitCode: code, Stderr: p.stderr.String()}
	})
	return p.result
}

func (p *process) Terminate() error {
	if p.cmd.Process == nil || p.exited.Load() {
		return nil
	}
	p.terminated.Store(true)
	if err := terminateGroup(p.cmd); err != nil {
		return err
	}

	time.AfterFunc(killGrace, func() {
		if !p.exited.Load() {
			_ = killGroup(p.cmd)
		}
	})
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
