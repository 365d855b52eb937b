package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/pkg/browser"

	"github.com/char5742/tabletctl/internal/api"
	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/profile"
	"github.com/char5742/tabletctl/internal/runner"
	"github.com/char5742/tabletctl/internal/wacom"
)

type listCmd struct {
	JSON bool `arg:"--json" help:"JSON形式で出力します"`
}

type curveCmd struct {
	ID     int       `arg:"positional,required" help:"デバイスID"`
	Points []float64 `arg:"positional" help:"minX minY maxX maxY (0.0-1.0)。省略すると現在値を表示します"`
}

type valueCmd struct {
	ID    int  `arg:"positional,required" help:"デバイスID"`
	Value *int `arg:"positional" help:"設定する値。省略すると現在値を表示します"`
}

type areaCmd struct {
	ID     int   `arg:"positional,required" help:"デバイスID"`
	Values []int `arg:"positional" help:"x y width height。省略すると現在値を表示します"`
}

type idCmd struct {
	ID int `arg:"positional,required" help:"デバイスID"`
}

type mapOutputCmd struct {
	ID      int    `arg:"positional,required" help:"デバイスID"`
	Display string `arg:"positional" help:"ディスプレイ名 (例: HDMI-1)"`
	Area    []int  `arg:"--area" help:"x y width height で画面上の領域を指定します"`
}

type handednessCmd struct {
	ID         int    `arg:"positional,required" help:"デバイスID"`
	Handedness string `arg:"positional" help:"left か right。省略すると現在値を表示します"`
}

type applyCmd struct{}

type watchCmd struct{}

type serveCmd struct {
	Port  int  `arg:"--port" help:"APIサーバーのポート番号 (0なら設定ファイルの値)"`
	Open  bool `arg:"--open" help:"起動後にブラウザでAPIを開きます"`
	Watch bool `arg:"--watch" help:"起動と同時にプロファイル監視を開始します"`
}

type args struct {
	Config string `arg:"--config" help:"設定ファイルのパス (指定しない場合はデフォルトパスを使用)"`

	List        *listCmd       `arg:"subcommand:list" help:"デバイスの一覧を表示します"`
	Curve       *curveCmd      `arg:"subcommand:curve" help:"筆圧カーブを表示・設定します"`
	Threshold   *valueCmd      `arg:"subcommand:threshold" help:"クリック閾値を表示・設定します"`
	Proximity   *valueCmd      `arg:"subcommand:proximity" help:"カーソル近接距離を表示・設定します"`
	Area        *areaCmd       `arg:"subcommand:area" help:"入力領域を表示・設定します"`
	ResetArea   *idCmd         `arg:"subcommand:reset-area" help:"入力領域をデフォルトに戻します"`
	DefaultArea *idCmd         `arg:"subcommand:default-area" help:"現在の領域を変えずにデフォルト領域を表示します"`
	MapOutput   *mapOutputCmd  `arg:"subcommand:map-output" help:"タブレットを画面に割り当てます"`
	Handedness  *handednessCmd `arg:"subcommand:handedness" help:"利き手を表示・設定します"`
	Apply       *applyCmd      `arg:"subcommand:apply" help:"設定ファイルのプロファイルを適用します"`
	Watch       *watchCmd      `arg:"subcommand:watch" help:"設定変更とデバイス接続を監視してプロファイルを適用し続けます"`
	Serve       *serveCmd      `arg:"subcommand:serve" help:"APIサーバーを起動します"`
}

func (args) Description() string {
	return "xsetwacom を使ってペンタブレットを設定します"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("サブコマンドを指定してください")
	}

	// 設定ファイルパスの決定
	cfgPath := a.Config
	if cfgPath == "" {
		configDir, err := config.GetDefaultConfigDir()
		if err == nil {
			cfgPath = filepath.Join(configDir, "config.toml")
		}
	}

	cfg := loadConfig(cfgPath)
	r := runner.NewRunner()
	tablet := wacom.New(r, cfg.Tool.Command)

	var err error
	switch {
	case a.List != nil:
		err = runList(tablet, a.List.JSON)
	case a.Curve != nil:
		err = runCurve(tablet, a.Curve)
	case a.Threshold != nil:
		err = runValue(a.Threshold, tablet.Threshold, tablet.SetThreshold)
	case a.Proximity != nil:
		err = runValue(a.Proximity, tablet.CursorProximity, tablet.SetCursorProximity)
	case a.Area != nil:
		err = runArea(tablet, a.Area)
	case a.ResetArea != nil:
		err = tablet.ResetArea(a.ResetArea.ID)
	case a.DefaultArea != nil:
		var area wacom.Area
		if area, err = tablet.DefaultArea(a.DefaultArea.ID); err == nil {
			printArea(area)
		}
	case a.MapOutput != nil:
		err = runMapOutput(tablet, a.MapOutput)
	case a.Handedness != nil:
		err = runHandedness(tablet, a.Handedness)
	case a.Apply != nil:
		err = runApply(tablet, cfg)
	case a.Watch != nil:
		err = runWatch(r, cfgPath, cfg)
	case a.Serve != nil:
		err = runServer(r, cfgPath, cfg, a.Serve)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cfgPath string) *config.Config {
	if cfgPath == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Printf("設定ファイルの読み込みに失敗しました: %v。デフォルト設定を使用します", err)
		return config.DefaultConfig()
	}
	return cfg
}

func runList(t *wacom.Tablet, asJSON bool) error {
	devices, err := t.ListDevices()
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}
	for _, d := range devices {
		fmt.Printf("%4d  %-7s %s\n", d.ID, d.Kind, d.Name)
	}
	return nil
}

func runCurve(t *wacom.Tablet, c *curveCmd) error {
	switch len(c.Points) {
	case 0:
		curve, err := t.PressureCurve(c.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%.2f %.2f %.2f %.2f\n", curve.MinX, curve.MinY, curve.MaxX, curve.MaxY)
		return nil
	case 4:
		return t.SetPressureCurve(c.ID, wacom.PressureCurve{
			MinX: c.Points[0], MinY: c.Points[1], MaxX: c.Points[2], MaxY: c.Points[3],
		})
	default:
		return fmt.Errorf("筆圧カーブには4個の値が必要です (指定: %d個)", len(c.Points))
	}
}

func runValue(c *valueCmd, get func(int) (int, error), set func(int, int) error) error {
	if c.Value != nil {
		return set(c.ID, *c.Value)
	}
	v, err := get(c.ID)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func runArea(t *wacom.Tablet, c *areaCmd) error {
	if len(c.Values) == 0 {
		area, err := t.Area(c.ID)
		if err != nil {
			return err
		}
		printArea(area)
		return nil
	}
	area, err := areaFromValues(c.Values)
	if err != nil {
		return err
	}
	return t.SetArea(c.ID, area)
}

func runMapOutput(t *wacom.Tablet, c *mapOutputCmd) error {
	switch {
	case c.Display != "" && c.Area != nil:
		return fmt.Errorf("ディスプレイ名と --area はどちらか一方を指定してください")
	case c.Area != nil:
		area, err := areaFromValues(c.Area)
		if err != nil {
			return err
		}
		return t.SetOutputFromArea(c.ID, area)
	default:
		return t.SetOutputFromDisplay(c.ID, c.Display)
	}
}

func runHandedness(t *wacom.Tablet, c *handednessCmd) error {
	if c.Handedness == "" {
		h, err := t.Handedness(c.ID)
		if err != nil {
			return err
		}
		fmt.Println(h)
		return nil
	}
	h, err := wacom.ParseHandedness(c.Handedness)
	if err != nil {
		return err
	}
	return t.SetHandedness(c.ID, h)
}

func runApply(t *wacom.Tablet, cfg *config.Config) error {
	report, err := profile.Apply(t, cfg.Profiles)
	for _, d := range report.Applied {
		fmt.Printf("適用しました: %s (id: %d)\n", d.Name, d.ID)
	}
	if report.Skipped > 0 {
		fmt.Printf("一致するプロファイルがないデバイス: %d台\n", report.Skipped)
	}
	return err
}

// プロファイル監視モードでの実行
func runWatch(r runner.Runner, cfgPath string, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("プロファイル監視を開始します (Ctrl+Cで終了)...")
	w := profile.NewWatcher(r, cfgPath, cfg, nil)
	if err := w.Watch(ctx); err != nil {
		return err
	}
	fmt.Println("シャットダウンします...")
	return nil
}

// APIサーバーモードでの実行
func runServer(r runner.Runner, cfgPath string, cfg *config.Config, c *serveCmd) error {
	port := c.Port
	if port == 0 {
		port = cfg.API.Port
	}

	server := api.NewServer(cfg, cfgPath, r, port)
	if c.Watch {
		if err := server.StartWatch(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	if c.Open {
		url := fmt.Sprintf("http://localhost:%d/api/devices", port)
		if err := browser.OpenURL(url); err != nil {
			log.Printf("ブラウザを開けませんでした: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
		fmt.Println("シャットダウンします...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(ctx)
	}
}

func areaFromValues(values []int) (wacom.Area, error) {
	if len(values) != 4 {
		return wacom.Area{}, fmt.Errorf("領域には x y width height の4個の値が必要です (指定: %d個)", len(values))
	}
	return wacom.Area{OffsetX: values[0], OffsetY: values[1], Width: values[2], Height: values[3]}, nil
}

func printArea(a wacom.Area) {
	fmt.Printf("%d %d %d %d\n", a.OffsetX, a.OffsetY, a.Width, a.Height)
}
