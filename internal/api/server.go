package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/runner"
	"github.com/char5742/tabletctl/internal/wacom"
)

// Server はAPIサーバーを表す構造体
type Server struct {
	server     *http.Server
	cfg        *config.Config
	configPath string
	runner     runner.Runner
	watch      *WatchService
	mutex      sync.RWMutex
	port       int
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(cfg *config.Config, configPath string, r runner.Runner, port int) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		runner:     r,
		watch:      NewWatchService(r, configPath),
		port:       port,
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	s.setupRoutes(router)
	return router
}

// Start はAPIサーバーを開始する
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	log.Printf("APIサーバーを開始します: http://localhost:%d", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop はAPIサーバーと監視サービスを停止する
func (s *Server) Stop(ctx context.Context) error {
	if s.watch.IsRunning() {
		_ = s.watch.Stop()
	}
	if s.server != nil {
		log.Println("APIサーバーを停止します...")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// StartWatch は現在の設定でプロファイル監視を開始する
func (s *Server) StartWatch() error {
	return s.watch.Start(s.GetConfig())
}

// GetConfig は現在の設定を返す
func (s *Server) GetConfig() *config.Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// UpdateConfig は設定を更新する
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cfg = cfg
}

// tablet は現在の設定のコマンドでTabletを作成する
func (s *Server) tablet() *wacom.Tablet {
	return wacom.New(s.runner, s.GetConfig().Tool.Command)
}

// writeJSON はJSONレスポンスを書き込む
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("JSONエンコードエラー: %v", err)
		}
	}
}

// writeError はエラーレスポンスを書き込む
func writeError(w http.ResponseWriter, status int, message string) {
	response := map[string]string{"error": message}
	writeJSON(w, status, response)
}

// writeTabletError はxsetwacom呼び出しのエラーを種類に応じたステータスで書き込む
func writeTabletError(w http.ResponseWriter, err error) {
	var (
		toolErr    *runner.ToolError
		parseErr   *wacom.ParseError
		restoreErr *wacom.RestoreError
	)

	// 復元失敗はデバイスが変更されたままなので502ではなく500で返す
	switch {
	case errors.As(err, &restoreErr):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &toolErr), errors.As(err, &parseErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		// 起動失敗(*runner.SpawnError)など
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
