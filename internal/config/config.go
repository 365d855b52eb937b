package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/char5742/tabletctl/internal/wacom"
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Tool     ToolConfig  `toml:"tool" json:"tool"`
	API      APIConfig   `toml:"api" json:"api"`
	Watch    WatchConfig `toml:"watch" json:"watch"`
	Profiles []Profile   `toml:"profiles" json:"profiles"`
}

// ToolConfig は外部コマンドの設定
type ToolConfig struct {
	Command string `toml:"command" json:"command"` // xsetwacomの実行ファイル
}

// APIConfig はAPIサーバーの設定
type APIConfig struct {
	Port int `toml:"port" json:"port"`
}

// WatchConfig は設定ファイルとデバイスの監視設定
type WatchConfig struct {
	Debounce time.Duration `toml:"debounce" json:"debounce"`   // イベントをまとめる時間
	InputDir string        `toml:"input_dir" json:"input_dir"` // ホットプラグを監視するディレクトリ
}

// Profile はデバイス名に一致したデバイスへ適用する設定。
// 空のフィールドは適用しない。
type Profile struct {
	Match           string    `toml:"match" json:"match"`                                           // デバイス名の部分一致
	Kind            string    `toml:"kind,omitempty" json:"kind,omitempty"`                         // STYLUS, PAD, ERASER, TOUCH
	PressureCurve   []float64 `toml:"pressure_curve,omitempty" json:"pressure_curve,omitempty"`     // minX minY maxX maxY
	Threshold       *int      `toml:"threshold,omitempty" json:"threshold,omitempty"`               // クリック閾値
	CursorProximity *int      `toml:"cursor_proximity,omitempty" json:"cursor_proximity,omitempty"` // 近接検出距離
	Area            []int     `toml:"area,omitempty" json:"area,omitempty"`                         // x y width height
	Output          string    `toml:"output,omitempty" json:"output,omitempty"`                     // ディスプレイ名
	Handedness      string    `toml:"handedness,omitempty" json:"handedness,omitempty"`             // left, right
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Tool: ToolConfig{
			Command: wacom.DefaultCommand,
		},
		API: APIConfig{
			Port: 8080,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			InputDir: "/dev/input",
		},
		Profiles: []Profile{},
	}
}

// GetDefaultConfigDir はユーザー設定ディレクトリ配下のアプリケーション用ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tabletctl"), nil
}

// LoadConfig は設定ファイルから設定を読み込む。
// ファイルが存在しない場合はデフォルト設定を保存して返す。
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		config := DefaultConfig()
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	return ReadConfig(configPath)
}

// ReadConfig は設定ファイルを読み込んで検証する。ファイルは作成しない。
func ReadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return DefaultConfig(), err
	}
	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return config, nil
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}

// Validate は設定値が正しいか確認する
func (c *Config) Validate() error {
	if c.Tool.Command == "" {
		return fmt.Errorf("tool.command が空です")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce は0以上である必要があります: %s", c.Watch.Debounce)
	}

	var errs []error
	for i, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("profiles[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate はプロファイルの各フィールドを確認する
func (p Profile) Validate() error {
	if p.Match == "" {
		return fmt.Errorf("match が空です")
	}
	if p.Kind != "" {
		if _, err := wacom.ParseKind(p.Kind); err != nil {
			return err
		}
	}
	if p.PressureCurve != nil {
		if len(p.PressureCurve) != 4 {
			return fmt.Errorf("pressure_curve は4個の値が必要です: %v", p.PressureCurve)
		}
		for _, v := range p.PressureCurve {
			if v < 0 || v > 1 {
				return fmt.Errorf("pressure_curve の値は0.0から1.0の範囲です: %v", v)
			}
		}
	}
	if p.Area != nil && len(p.Area) != 4 {
		return fmt.Errorf("area は4個の値が必要です: %v", p.Area)
	}
	if p.Handedness != "" {
		if _, err := wacom.ParseHandedness(p.Handedness); err != nil {
			return err
		}
	}
	return nil
}
