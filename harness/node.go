// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package harness starts, supervises and stops the heterogeneous node
// processes of one test run and wires them into a cluster. Node binaries
// are opaque: the harness touches them only through process signals, their
// generated configuration, and their RPC surface.
package harness

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Node is one supervised OS process. A node's index is immutable and keys
// its ports, its data directory and its peer identity for the whole run.
//
// Lifecycle: SetupConfig materializes the node's configuration (idempotent,
// must not need any other node running), Start spawns the process without
// blocking for readiness, WaitForRPC polls the node-type-specific readiness
// probe, Stop tears the process and its working directory down as one
// transaction.
type Node interface {
	Index() int
	SetupConfig() error
	Start(ctx context.Context) error
	WaitForRPC(ctx context.Context) error
	Stop(force bool) error
	RPCEndpoint() string
	Running() bool
}

// process owns one spawned command with its captured output.
type process struct {
	cmd      *exec.Cmd
	output   *lumberjack.Logger
	logPath  string
	waitDone chan error
}

func startProcess(logPath string, bin string, args ...string) (*process, error) {
	output := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // Mb
		MaxBackups: 3,
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = output
	cmd.Stderr = output
	if err := cmd.Start(); err != nil {
		_ = output.Close()
		return nil, errors.Wrapf(err, "could not start %s", bin)
	}
	p := &process{
		cmd:      cmd,
		output:   output,
		logPath:  logPath,
		waitDone: make(chan error, 1),
	}
	go func() {
		p.waitDone <- cmd.Wait()
	}()
	return p, nil
}

// stop requests a graceful shutdown and, when the process outlives the
// grace period with force set, escalates to a hard kill. The exit status of
// a signalled process is not an error.
func (p *process) stop(grace time.Duration, force bool) error {
	defer p.output.Close()

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone is fine.
		if !errors.Is(err, os.ErrProcessDone) {
			return errors.Wrap(err, "signalling process")
		}
	}
	select {
	case <-p.waitDone:
		return nil
	case <-time.After(grace):
	}
	if !force {
		return errors.Errorf("process still running %v after SIGTERM", grace)
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrap(err, "killing process")
	}
	<-p.waitDone
	return nil
}

// exited reports whether the process is no longer running, without blocking.
func (p *process) exited() bool {
	select {
	case err := <-p.waitDone:
		p.waitDone <- err
		return true
	default:
		return false
	}
}
