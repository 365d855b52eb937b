package runner

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

func TestNewRunner(t *testing.T) {
	r := NewRunner()
	if r == nil {
		t.Fatal("expected non-nil runner")
	}
	if _, ok := r.(*execRunner); !ok {
		t.Fatalf("expected *execRunner, got %T", r)
	}
}

func TestRun_CapturesStdout(t *testing.T) {
	res, err := NewRunner().Run("/bin/sh", "-c", "printf 'hello\\n'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "hello" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
	if res.Stderr != "" {
		t.Fatalf("unexpected stderr: %q", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Fatalf("unexpected exit code: %d", res.ExitCode)
	}
}

func TestRun_SeparatesStreams(t *testing.T) {
	res, err := NewRunner().Run("/bin/sh", "-c", "printf out; printf err 1>&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "out" || res.Stderr != "err" {
		t.Fatalf("got stdout=%q stderr=%q", res.Stdout, res.Stderr)
	}
}

func TestRun_StripsOnlyTrailingNewlines(t *testing.T) {
	res, err := NewRunner().Run("/bin/sh", "-c", "printf 'a\\nb\\n\\n'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "a\nb" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}

func TestRun_PassesArgumentsVerbatim(t *testing.T) {
	res, err := NewRunner().Run("/bin/sh", "-c", `printf '%s|' "$@"`, "sh", "Wacom Pen", "id: 7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "Wacom Pen|id: 7|" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}

func TestRun_NonZeroExitIsNotSpawnError(t *testing.T) {
	res, err := NewRunner().Run("/bin/sh", "-c", "printf boom 1>&2; exit 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
	if res.Stderr != "boom" {
		t.Fatalf("unexpected stderr: %q", res.Stderr)
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	_, err := NewRunner().Run("definitely-not-a-real-command-7f3a")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected *SpawnError, got %T: %v", err, err)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected exec.ErrNotFound in chain, got %v", err)
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		t.Fatal("spawn failure must not be reported as a tool failure")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-real-command-7f3a") {
		t.Fatalf("error should name the command: %q", err.Error())
	}
}

// パイプバッファ(64KiB)を超える量を両方のストリームに書いてもデッドロックしないこと
func TestRun_LargeOutputOnBothStreams(t *testing.T) {
	const lines = 20000
	script := fmt.Sprintf(`i=0
while [ $i -lt %d ]; do
  printf 'out-%%05d\n' $i
  printf 'err-%%05d\n' $i 1>&2
  i=$((i+1))
done`, lines)

	res, err := NewRunner().Run("/bin/sh", "-c", script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outLines := strings.Split(res.Stdout, "\n")
	errLines := strings.Split(res.Stderr, "\n")
	if len(outLines) != lines || len(errLines) != lines {
		t.Fatalf("expected %d lines on each stream, got stdout=%d stderr=%d", lines, len(outLines), len(errLines))
	}
	for i := 0; i < lines; i++ {
		if want := fmt.Sprintf("out-%05d", i); outLines[i] != want {
			t.Fatalf("stdout line %d: got %q, want %q", i, outLines[i], want)
		}
		if want := fmt.Sprintf("err-%05d", i); errLines[i] != want {
			t.Fatalf("stderr line %d: got %q, want %q", i, errLines[i], want)
		}
	}
}

func TestRun_LargeStderrBeforeStdout(t *testing.T) {
	res, err := NewRunner().Run("/bin/sh", "-c", "head -c 200000 /dev/zero | tr '\\0' e 1>&2; printf done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "done" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
	if len(res.Stderr) != 200000 || strings.Trim(res.Stderr, "e") != "" {
		t.Fatalf("expected 200000 bytes of 'e' on stderr, got %d bytes", len(res.Stderr))
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		res     Result
		wantErr string
	}{
		{name: "success", res: Result{Stdout: "0 0 100 100"}},
		{name: "stderr", res: Result{Stderr: "Cannot find device '99'."}, wantErr: "Cannot find device '99'."},
		{name: "stderr with zero exit", res: Result{Stdout: "x", Stderr: "warning"}, wantErr: "warning"},
		{name: "exit only", res: Result{ExitCode: 2}, wantErr: "exit status 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.res)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var toolErr *ToolError
			if !errors.As(err, &toolErr) {
				t.Fatalf("expected *ToolError, got %T", err)
			}
			if err.Error() != tt.wantErr {
				t.Fatalf("got %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}
