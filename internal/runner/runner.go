// Package runner は外部コマンドを子プロセスとして実行し、標準出力と標準エラーを取得する
package runner

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result は子プロセスの実行結果を表す構造体
type Result struct {
	Stdout   string // 末尾の改行を除いた標準出力
	Stderr   string // 末尾の改行を除いた標準エラー
	ExitCode int    // 終了コード（シグナル終了の場合は-1）
}

// Runner は外部コマンドを実行し、終了まで待機するインターフェース
type Runner interface {
	// Run はコマンドを実行し、両方の出力ストリームを最後まで読み取って返す。
	// 起動に失敗した場合のみ *SpawnError を返し、終了コードはResultで報告する。
	Run(name string, args ...string) (Result, error)
}

type execRunner struct{}

// NewRunner はOSのプロセス実行を使うRunnerを作成する
func NewRunner() Runner {
	return &execRunner{}
}

// SpawnError は子プロセスの起動失敗を表す
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s の起動に失敗しました: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ToolError は外部コマンド自身が報告した失敗を表す。
// Message は標準エラーの内容そのもの。
type ToolError struct {
	Message  string
	ExitCode int
}

func (e *ToolError) Error() string {
	return e.Message
}

// Check は実行結果をアプリケーションレベルで検査する。
// 標準エラーに何か出力されていれば失敗とみなす。
func Check(res Result) error {
	if res.Stderr != "" {
		return &ToolError{Message: res.Stderr, ExitCode: res.ExitCode}
	}
	if res.ExitCode != 0 {
		return &ToolError{Message: fmt.Sprintf("exit status %d", res.ExitCode), ExitCode: res.ExitCode}
	}
	return nil
}

// finish はWaitの結果からResultを組み立てる
func finish(name string, cmd *exec.Cmd, stdout, stderr []byte, waitErr error) (Result, error) {
	res := Result{
		Stdout: trimNewline(string(stdout)),
		Stderr: trimNewline(string(stderr)),
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return res, fmt.Errorf("%s の終了待機に失敗しました: %w", name, waitErr)
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	return res, nil
}

func trimNewline(s string) string {
	return strings.TrimRight(s, "\r\n")
}
