// Package wacomtest はxsetwacomの振る舞いを模倣するテスト用Runnerを提供する
package wacomtest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/char5742/tabletctl/internal/runner"
)

// Device は偽のxsetwacomが保持するデバイスの状態
type Device struct {
	Name            string
	ID              int
	Type            string // STYLUS, PAD, ERASER, TOUCH など
	PressureCurve   [4]int
	Threshold       int
	CursorProximity int
	Area            [4]int
	DefaultArea     [4]int
	Rotate          int
	Output          string
}

// Fake はxsetwacomの引数を解釈して状態を読み書きするrunner.Runner
type Fake struct {
	mu       sync.Mutex
	devices  []*Device
	calls    [][]string
	failures map[string]string // "--set Area" などをキーにした標準エラー
	outputs  map[string]string // "--get Area" などをキーにした標準出力の差し替え

	// Hook が設定されていれば最初に呼ばれ、trueを返した場合はその結果を使う
	Hook func(args []string) (runner.Result, bool)
}

// New は空のFakeを作成する
func New() *Fake {
	return &Fake{
		failures: make(map[string]string),
		outputs:  make(map[string]string),
	}
}

// AddDevice はデフォルト値を持つデバイスを追加する
func (f *Fake) AddDevice(name string, id int, typ string) *Device {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := &Device{
		Name:            name,
		ID:              id,
		Type:            typ,
		PressureCurve:   [4]int{0, 0, 100, 100},
		Threshold:       27,
		CursorProximity: 30,
		Area:            [4]int{0, 0, 44704, 27940},
		DefaultArea:     [4]int{0, 0, 44704, 27940},
	}
	f.devices = append(f.devices, d)
	return d
}

// FailOn は指定した操作で標準エラーにmessageを出力させる。
// op は "--get" か "--set"、param はパラメータ名。
func (f *Fake) FailOn(op, param, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op+" "+param] = message
}

// ClearFailures はFailOnの設定をすべて解除する
func (f *Fake) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]string)
}

// RespondWith は指定した操作の標準出力を固定の文字列に差し替える
func (f *Fake) RespondWith(op, param, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[op+" "+param] = stdout
}

// Device はIDに対応するデバイス状態のコピーを返す
func (f *Fake) Device(id int) (Device, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d := f.find(id); d != nil {
		return *d, true
	}
	return Device{}, false
}

// Calls はこれまでに受け取った引数列を返す
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([][]string, len(f.calls))
	for i, c := range f.calls {
		calls[i] = append([]string(nil), c...)
	}
	return calls
}

// SetCalls は "--set" の呼び出しだけを "<id> <param> <values...>" 形式で返す
func (f *Fake) SetCalls() []string {
	var sets []string
	for _, c := range f.Calls() {
		if len(c) >= 3 && c[0] == "--set" {
			sets = append(sets, strings.Join(c[1:], " "))
		}
	}
	return sets
}

func (f *Fake) Run(name string, args ...string) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), args...))

	if f.Hook != nil && len(args) >= 3 {
		if res, ok := f.Hook(args); ok {
			return res, nil
		}
	}

	if len(args) == 2 && args[0] == "--list" && args[1] == "devices" {
		if out, ok := f.outputs["--list devices"]; ok {
			return runner.Result{Stdout: out}, nil
		}
		if msg, ok := f.failures["--list devices"]; ok {
			return runner.Result{Stderr: msg, ExitCode: 1}, nil
		}
		return runner.Result{Stdout: f.list()}, nil
	}

	if len(args) < 3 || (args[0] != "--get" && args[0] != "--set") {
		return runner.Result{Stderr: fmt.Sprintf("Usage: %s [options] [command [arguments]]", name), ExitCode: 1}, nil
	}

	op, param := args[0], args[2]
	key := op + " " + param
	if msg, ok := f.failures[key]; ok {
		return runner.Result{Stderr: msg, ExitCode: 1}, nil
	}

	id, err := strconv.Atoi(args[1])
	d := f.find(id)
	if err != nil || d == nil {
		return runner.Result{Stderr: fmt.Sprintf("Cannot find device '%s'.", args[1]), ExitCode: 1}, nil
	}

	if out, ok := f.outputs[key]; ok {
		return runner.Result{Stdout: out}, nil
	}

	if op == "--get" {
		return f.get(d, param), nil
	}
	return f.set(d, param, args[3:]), nil
}

func (f *Fake) find(id int) *Device {
	for _, d := range f.devices {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (f *Fake) list() string {
	var b strings.Builder
	for _, d := range f.devices {
		fmt.Fprintf(&b, "%-38s\tid: %d\ttype: %-8s\n", d.Name, d.ID, d.Type)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Fake) get(d *Device, param string) runner.Result {
	switch param {
	case "PressureCurve":
		return runner.Result{Stdout: joinInts(d.PressureCurve[:])}
	case "Threshold":
		return runner.Result{Stdout: strconv.Itoa(d.Threshold)}
	case "CursorProximity":
		return runner.Result{Stdout: strconv.Itoa(d.CursorProximity)}
	case "Area":
		return runner.Result{Stdout: joinInts(d.Area[:])}
	case "Rotate":
		return runner.Result{Stdout: rotationNames[d.Rotate]}
	default:
		return unknownParameter(param)
	}
}

var rotationNames = map[int]string{0: "none", 1: "cw", 2: "ccw", 3: "half"}

func (f *Fake) set(d *Device, param string, values []string) runner.Result {
	switch param {
	case "PressureCurve":
		return setInts(d.PressureCurve[:], values)
	case "Area":
		return setInts(d.Area[:], values)
	case "ResetArea":
		d.Area = d.DefaultArea
		return runner.Result{}
	case "Threshold":
		return setInts([]int{0}, values, func(v []int) { d.Threshold = v[0] })
	case "CursorProximity":
		return setInts([]int{0}, values, func(v []int) { d.CursorProximity = v[0] })
	case "Rotate":
		return setInts([]int{0}, values, func(v []int) { d.Rotate = v[0] })
	case "MapToOutput":
		if len(values) != 1 {
			return runner.Result{Stderr: "Usage: MapToOutput <output name|geometry>", ExitCode: 1}
		}
		d.Output = values[0]
		return runner.Result{}
	default:
		return unknownParameter(param)
	}
}

func setInts(dst []int, values []string, apply ...func([]int)) runner.Result {
	if len(values) != len(dst) {
		return runner.Result{Stderr: fmt.Sprintf("'%d' values expected, got '%d'.", len(dst), len(values)), ExitCode: 1}
	}
	parsed := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return runner.Result{Stderr: fmt.Sprintf("Value '%s' is not a number.", v), ExitCode: 1}
		}
		parsed[i] = n
	}
	copy(dst, parsed)
	for _, fn := range apply {
		fn(parsed)
	}
	return runner.Result{}
}

func unknownParameter(param string) runner.Result {
	return runner.Result{Stderr: fmt.Sprintf("Unknown parameter name '%s'.", param), ExitCode: 1}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
