package profile

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/runner"
	"github.com/char5742/tabletctl/internal/wacom"
)

// Watcher は設定ファイルの変更とタブレットの抜き差しを監視し、
// プロファイルを再適用する。
type Watcher struct {
	runner     runner.Runner
	configPath string
	logger     *log.Logger

	mutex sync.RWMutex
	cfg   *config.Config
}

// NewWatcher は新しいWatcherを作成する。
// loggerがnilの場合は標準のロガーを使う。
func NewWatcher(r runner.Runner, configPath string, cfg *config.Config, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		runner:     r,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
	}
}

// Config は現在の設定を返す
func (w *Watcher) Config() *config.Config {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.cfg
}

// Watch は監視ループを実行する。起動時に一度プロファイルを適用し、
// ctxがキャンセルされるまでブロックする。
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// アトミックな書き込み（一時ファイル→rename）でも追従できるようディレクトリを監視する
	configDir, configFile := filepath.Split(w.configPath)
	if configDir == "" {
		configDir = "."
	}
	if w.configPath != "" {
		if err := watcher.Add(configDir); err != nil {
			w.logger.Printf("設定ディレクトリの監視に失敗しました: %s - %v", configDir, err)
		} else {
			w.logger.Printf("設定ファイルの監視を開始: %s", w.configPath)
		}
	}

	inputDir := w.Config().Watch.InputDir
	if inputDir != "" {
		if _, err := os.Stat(inputDir); err == nil {
			if err := watcher.Add(inputDir); err != nil {
				w.logger.Printf("デバイスディレクトリの監視に失敗しました: %s - %v", inputDir, err)
			} else {
				w.logger.Printf("デバイスディレクトリの監視を開始: %s", inputDir)
			}
		}
	}

	w.apply()

	debounce := w.Config().Watch.Debounce
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	pendingReload := false
	pendingApply := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Println("監視を停止します")
			return nil

		case <-timer.C:
			if pendingReload {
				pendingReload = false
				w.reload()
			}
			if pendingApply {
				pendingApply = false
				w.apply()
			}

		case event, ok := <-watcher.Events:
			if !ok {
				w.logger.Println("イベントチャネルが閉じられました")
				return nil
			}

			dir, file := filepath.Split(event.Name)
			isConfigEvent := w.configPath != "" && file == configFile &&
				filepath.Clean(dir) == filepath.Clean(configDir) &&
				event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
			isDeviceEvent := inputDir != "" && filepath.Clean(dir) == filepath.Clean(inputDir) &&
				event.Op&(fsnotify.Create|fsnotify.Remove) != 0

			if !isConfigEvent && !isDeviceEvent {
				continue
			}
			w.logger.Printf("ファイルシステムイベント: %s %s", event.Op.String(), event.Name)

			if isConfigEvent {
				pendingReload = true
			}
			pendingApply = true
			// タイマーをリセットして複数のイベントをまとめて処理する
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				w.logger.Println("エラーチャネルが閉じられました")
				return nil
			}
			w.logger.Printf("ファイルシステム監視エラー: %v", err)
		}
	}
}

// reload は設定ファイルを読み直す。失敗した場合は以前の設定を使い続ける。
func (w *Watcher) reload() {
	cfg, err := config.ReadConfig(w.configPath)
	if err != nil {
		w.logger.Printf("設定ファイルの再読み込みに失敗しました: %v", err)
		return
	}

	w.mutex.Lock()
	w.cfg = cfg
	w.mutex.Unlock()
	w.logger.Printf("設定ファイルを再読み込みしました: %s", w.configPath)
}

// apply は現在の設定でプロファイルを適用する
func (w *Watcher) apply() {
	cfg := w.Config()
	tablet := wacom.New(w.runner, cfg.Tool.Command)

	report, err := Apply(tablet, cfg.Profiles)
	if err != nil {
		w.logger.Printf("プロファイルの適用でエラーが発生しました: %v", err)
	}
	w.logger.Printf("プロファイル適用: %d 個のデバイスに適用, %d 個をスキップ", len(report.Applied), report.Skipped)
}
