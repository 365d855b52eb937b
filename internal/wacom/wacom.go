// Package wacom はxsetwacomコマンドを呼び出してペンタブレットの設定を読み書きする
package wacom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/char5742/tabletctl/internal/runner"
)

// DefaultCommand は設定で上書きされない場合に使う実行ファイル名
const DefaultCommand = "xsetwacom"

// xsetwacomのパラメータ名
const (
	paramPressureCurve   = "PressureCurve"
	paramThreshold       = "Threshold"
	paramCursorProximity = "CursorProximity"
	paramArea            = "Area"
	paramResetArea       = "ResetArea"
	paramMapToOutput     = "MapToOutput"
	paramRotate          = "Rotate"
)

// curveScale はxsetwacomの筆圧カーブの目盛り（0-100）
const curveScale = 100

// Tablet はxsetwacomを介してデバイスを操作する
type Tablet struct {
	runner  runner.Runner
	command string
}

// New は指定したRunnerでxsetwacomを実行するTabletを作成する。
// commandが空の場合はDefaultCommandを使う。
func New(r runner.Runner, command string) *Tablet {
	if command == "" {
		command = DefaultCommand
	}
	return &Tablet{runner: r, command: command}
}

// Command は実行する外部コマンド名を返す
func (t *Tablet) Command() string {
	return t.command
}

// ListDevices は接続されているデバイスの一覧を返す
func (t *Tablet) ListDevices() ([]Device, error) {
	out, err := t.exec("--list", "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out)
}

// PressureCurve は筆圧カーブを取得する
func (t *Tablet) PressureCurve(id int) (PressureCurve, error) {
	values, err := t.getInts(id, paramPressureCurve, 4)
	if err != nil {
		return PressureCurve{}, err
	}
	return PressureCurve{
		MinX: float64(values[0]) / curveScale,
		MinY: float64(values[1]) / curveScale,
		MaxX: float64(values[2]) / curveScale,
		MaxY: float64(values[3]) / curveScale,
	}, nil
}

// SetPressureCurve は筆圧カーブを設定する。値は0-100に量子化される。
func (t *Tablet) SetPressureCurve(id int, c PressureCurve) error {
	return t.set(id, paramPressureCurve,
		scaleCurvePoint(c.MinX),
		scaleCurvePoint(c.MinY),
		scaleCurvePoint(c.MaxX),
		scaleCurvePoint(c.MaxY),
	)
}

// Threshold はペン先のクリック閾値を取得する
func (t *Tablet) Threshold(id int) (int, error) {
	values, err := t.getInts(id, paramThreshold, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// SetThreshold はペン先のクリック閾値を設定する
func (t *Tablet) SetThreshold(id int, threshold int) error {
	return t.set(id, paramThreshold, strconv.Itoa(threshold))
}

// CursorProximity は近接検出の距離を取得する
func (t *Tablet) CursorProximity(id int) (int, error) {
	values, err := t.getInts(id, paramCursorProximity, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// SetCursorProximity は近接検出の距離を設定する
func (t *Tablet) SetCursorProximity(id int, proximity int) error {
	return t.set(id, paramCursorProximity, strconv.Itoa(proximity))
}

// Area は現在のタブレット領域を取得する
func (t *Tablet) Area(id int) (Area, error) {
	values, err := t.getInts(id, paramArea, 4)
	if err != nil {
		return Area{}, err
	}
	return Area{
		OffsetX: values[0],
		OffsetY: values[1],
		Width:   values[2],
		Height:  values[3],
	}, nil
}

// SetArea はタブレット領域を設定する
func (t *Tablet) SetArea(id int, a Area) error {
	return t.set(id, paramArea,
		strconv.Itoa(a.OffsetX),
		strconv.Itoa(a.OffsetY),
		strconv.Itoa(a.Width),
		strconv.Itoa(a.Height),
	)
}

// ResetArea はタブレット領域を工場出荷時の値に戻す
func (t *Tablet) ResetArea(id int) error {
	return t.set(id, paramResetArea)
}

// DefaultArea は工場出荷時の領域を返す。
// 一時的に領域をリセットして読み取り、元の領域に戻す。
// 戻せなかった場合は *RestoreError を返す。
func (t *Tablet) DefaultArea(id int) (Area, error) {
	previous, err := t.Area(id)
	if err != nil {
		return Area{}, err
	}

	if err := t.ResetArea(id); err != nil {
		return Area{}, err
	}

	defaultArea, readErr := t.Area(id)

	// 読み取りに失敗してもリセット済みなので必ず戻す
	if err := t.SetArea(id, previous); err != nil {
		restoreErr := &RestoreError{ID: id, Previous: previous, Err: err}
		if readErr != nil {
			return Area{}, errors.Join(readErr, restoreErr)
		}
		return Area{}, restoreErr
	}
	if readErr != nil {
		return Area{}, readErr
	}

	return defaultArea, nil
}

// SetOutputFromDisplay はスタイラスの入力を指定したディスプレイに割り当てる
func (t *Tablet) SetOutputFromDisplay(id int, displayName string) error {
	if strings.TrimSpace(displayName) == "" {
		return fmt.Errorf("ディスプレイ名が空です")
	}
	return t.set(id, paramMapToOutput, displayName)
}

// SetOutputFromArea はスタイラスの入力を画面上の矩形に割り当てる
func (t *Tablet) SetOutputFromArea(id int, a Area) error {
	return t.set(id, paramMapToOutput, a.Geometry())
}

// Handedness は回転設定から利き手を取得する
func (t *Tablet) Handedness(id int) (Handedness, error) {
	out, err := t.get(id, paramRotate)
	if err != nil {
		return 0, err
	}
	h, ok := handednessFromRotation(strings.TrimSpace(out))
	if !ok {
		return 0, &ParseError{
			Op:     getOp(id, paramRotate),
			Output: out,
			Err:    fmt.Errorf("左右どちらにも対応しない回転です"),
		}
	}
	return h, nil
}

// SetHandedness は利き手に応じて入力を回転させる
func (t *Tablet) SetHandedness(id int, h Handedness) error {
	rotation, err := h.rotation()
	if err != nil {
		return err
	}
	return t.set(id, paramRotate, rotation)
}

// exec はxsetwacomを実行し、標準エラーが空であれば標準出力を返す
func (t *Tablet) exec(args ...string) (string, error) {
	res, err := t.runner.Run(t.command, args...)
	if err != nil {
		return "", err
	}
	if err := runner.Check(res); err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (t *Tablet) get(id int, param string) (string, error) {
	return t.exec("--get", strconv.Itoa(id), param)
}

func (t *Tablet) set(id int, param string, values ...string) error {
	args := append([]string{"--set", strconv.Itoa(id), param}, values...)
	_, err := t.exec(args...)
	return err
}

func (t *Tablet) getInts(id int, param string, n int) ([]int, error) {
	out, err := t.get(id, param)
	if err != nil {
		return nil, err
	}
	values, err := parseInts(out, n)
	if err != nil {
		return nil, &ParseError{Op: getOp(id, param), Output: out, Err: err}
	}
	return values, nil
}

func getOp(id int, param string) string {
	return fmt.Sprintf("--get %d %s", id, param)
}

func scaleCurvePoint(v float64) string {
	return strconv.Itoa(int(math.Round(v * curveScale)))
}
