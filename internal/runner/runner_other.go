//go:build !linux

package runner

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

func (r *execRunner) Run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &SpawnError{Name: name, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, &SpawnError{Name: name, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Name: name, Err: err}
	}

	// 2本のパイプを並行して読み切る
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	if err := g.Wait(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return Result{}, fmt.Errorf("%s の出力の読み取りに失敗しました: %w", name, err)
	}

	return finish(name, cmd, outBuf.Bytes(), errBuf.Bytes(), cmd.Wait())
}
