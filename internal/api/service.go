package api

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/profile"
	"github.com/char5742/tabletctl/internal/runner"
)

// WatchService はプロファイル監視をバックグラウンドで実行する構造体
type WatchService struct {
	runner      runner.Runner
	configPath  string
	cancel      context.CancelFunc
	done        chan struct{}
	running     bool
	statusMutex sync.RWMutex
}

// NewWatchService は新しい監視サービスを作成する
func NewWatchService(r runner.Runner, configPath string) *WatchService {
	return &WatchService{
		runner:     r,
		configPath: configPath,
	}
}

// Start は監視を開始する
func (s *WatchService) Start(cfg *config.Config) error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return fmt.Errorf("監視は既に実行中です")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	watcher := profile.NewWatcher(s.runner, s.configPath, cfg, nil)
	go func(done chan struct{}) {
		defer close(done)
		if err := watcher.Watch(ctx); err != nil {
			log.Printf("監視が異常終了しました: %v", err)
		}

		s.statusMutex.Lock()
		s.running = false
		s.statusMutex.Unlock()
	}(s.done)

	return nil
}

// Stop は監視を停止し、ループの終了を待つ
func (s *WatchService) Stop() error {
	s.statusMutex.Lock()
	if !s.running {
		s.statusMutex.Unlock()
		return fmt.Errorf("監視は実行されていません")
	}
	cancel, done := s.cancel, s.done
	s.statusMutex.Unlock()

	cancel()
	<-done
	return nil
}

// IsRunning は監視が実行中かどうかを返す
func (s *WatchService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}
