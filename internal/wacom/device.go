package wacom

import (
	"fmt"
	"strings"
)

// Device はxsetwacomが認識している入力デバイスを表す構造体
type Device struct {
	Name string `json:"name"` // デバイス名
	ID   int    `json:"id"`   // xsetwacomのデバイスID
	Kind Kind   `json:"kind"` // デバイスの種類
}

// デバイスの種類を表す列挙型
type Kind int

const (
	KindStylus Kind = iota
	KindPad
	KindEraser
	KindTouch
)

func (k Kind) String() string {
	switch k {
	case KindStylus:
		return "STYLUS"
	case KindPad:
		return "PAD"
	case KindEraser:
		return "ERASER"
	case KindTouch:
		return "TOUCH"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind はxsetwacomが出力する種類名をKindに変換する
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STYLUS":
		return KindStylus, nil
	case "PAD":
		return KindPad, nil
	case "ERASER":
		return KindEraser, nil
	case "TOUCH":
		return KindTouch, nil
	default:
		return 0, fmt.Errorf("不明なデバイス種類です: %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, err := ParseKind(k.String()); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// PressureCurve は筆圧カーブの2つの制御点（0.0-1.0）
type PressureCurve struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Area はスタイラスがマッピングされる矩形
type Area struct {
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// Geometry はMapToOutputに渡す WxH+X+Y 形式の文字列を返す
func (a Area) Geometry() string {
	return fmt.Sprintf("%dx%d+%d+%d", a.Width, a.Height, a.OffsetX, a.OffsetY)
}

// 利き手を表す列挙型
type Handedness int

const (
	RightHanded Handedness = iota
	LeftHanded
)

func (h Handedness) String() string {
	switch h {
	case RightHanded:
		return "right"
	case LeftHanded:
		return "left"
	default:
		return fmt.Sprintf("Handedness(%d)", int(h))
	}
}

// ParseHandedness は "left" / "right" をHandednessに変換する
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right":
		return RightHanded, nil
	case "left":
		return LeftHanded, nil
	default:
		return 0, fmt.Errorf("利き手は left か right で指定してください: %q", s)
	}
}

func (h Handedness) MarshalText() ([]byte, error) {
	if _, err := h.rotation(); err != nil {
		return nil, err
	}
	return []byte(h.String()), nil
}

func (h *Handedness) UnmarshalText(text []byte) error {
	parsed, err := ParseHandedness(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// rotation はRotateパラメータに書き込む値を返す
func (h Handedness) rotation() (string, error) {
	switch h {
	case RightHanded:
		return "0", nil
	case LeftHanded:
		return "3", nil
	default:
		return "", fmt.Errorf("不明な利き手です: %d", int(h))
	}
}

// handednessFromRotation はRotateの読み出し値を利き手に変換する
func handednessFromRotation(s string) (Handedness, bool) {
	switch strings.ToLower(s) {
	case "none", "0":
		return RightHanded, true
	case "half", "3":
		return LeftHanded, true
	default:
		return 0, false
	}
}
