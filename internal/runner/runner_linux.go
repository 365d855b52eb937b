//go:build linux

package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

const readChunkSize = 4096

// pipe は close-on-exec付きで作成したパイプの両端
type pipe struct {
	r *os.File
	w *os.File
}

func newPipe(name string) (*pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &pipe{
		r: os.NewFile(uintptr(fds[0]), name+"|r"),
		w: os.NewFile(uintptr(fds[1]), name+"|w"),
	}, nil
}

// Close は両端を閉じる。閉じ済みの端は無視される。
func (p *pipe) Close() {
	_ = p.r.Close()
	_ = p.w.Close()
}

func (r *execRunner) Run(name string, args ...string) (Result, error) {
	stdout, err := newPipe("stdout")
	if err != nil {
		return Result{}, &SpawnError{Name: name, Err: err}
	}
	defer stdout.Close()

	stderr, err := newPipe("stderr")
	if err != nil {
		return Result{}, &SpawnError{Name: name, Err: err}
	}
	defer stderr.Close()

	// *os.Fileを渡すと書き込み側がそのまま子プロセスのfd 1, 2になる
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout.w
	cmd.Stderr = stderr.w

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Name: name, Err: err}
	}

	// 親側の書き込み端を閉じないと子プロセス終了後もEOFにならない
	_ = stdout.w.Close()
	_ = stderr.w.Close()

	outBuf, errBuf, drainErr := drain(stdout.r, stderr.r)
	if drainErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return Result{}, fmt.Errorf("%s の出力の読み取りに失敗しました: %w", name, drainErr)
	}

	return finish(name, cmd, outBuf, errBuf, cmd.Wait())
}

// drain はpollで2本のパイプを同時に監視し、両方がEOFになるまで読み取る。
// 片方だけを読み続けて子プロセスがもう片方の書き込みでブロックするのを防ぐ。
func drain(stdout, stderr *os.File) ([]byte, []byte, error) {
	var bufs [2]bytes.Buffer
	fds := []unix.PollFd{
		{Fd: int32(stdout.Fd()), Events: unix.POLLIN},
		{Fd: int32(stderr.Fd()), Events: unix.POLLIN},
	}
	chunk := make([]byte, readChunkSize)

	open := len(fds)
	for open > 0 {
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, nil, err
		}

		for i := range fds {
			if fds[i].Fd < 0 || fds[i].Revents == 0 {
				continue
			}
			if fds[i].Revents&unix.POLLNVAL != 0 {
				fds[i].Fd = -1
				open--
				continue
			}

			n, err := unix.Read(int(fds[i].Fd), chunk)
			switch {
			case err == unix.EINTR || err == unix.EAGAIN:
				continue
			case err != nil:
				return nil, nil, err
			case n == 0:
				// EOF。負のfdはpollに無視される
				fds[i].Fd = -1
				open--
			default:
				bufs[i].Write(chunk[:n])
			}
		}
	}

	return bufs[0].Bytes(), bufs[1].Bytes(), nil
}
