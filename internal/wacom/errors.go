package wacom

import "fmt"

// ParseError はxsetwacomの出力を期待する形式で解釈できなかったことを表す
type ParseError struct {
	Op     string // 実行した操作（例: "--get 7 Area"）
	Output string // 解釈できなかった出力
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s の出力を解析できませんでした (%q): %v", e.Op, e.Output, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RestoreError はデフォルト領域の取得後に元の領域へ戻せなかったことを表す。
// この場合デバイスは工場出荷時の領域のままになっている。
type RestoreError struct {
	ID       int
	Previous Area // 戻そうとした領域
	Err      error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("デバイス %d の領域を %+v に戻せませんでした: %v", e.ID, e.Previous, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}
