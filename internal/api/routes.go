package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/profile"
	"github.com/char5742/tabletctl/internal/wacom"
)

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// 設定関連のエンドポイント
	router.HandleFunc("GET /api/config", s.handleGetConfig)
	router.HandleFunc("PUT /api/config", s.handleUpdateConfig)
	router.HandleFunc("POST /api/config/save", s.handleSaveConfig)
	router.HandleFunc("POST /api/profiles/apply", s.handleApplyProfiles)

	// デバイス関連のエンドポイント
	router.HandleFunc("GET /api/devices", s.handleGetDevices)
	router.HandleFunc("GET /api/devices/{id}/pressure-curve", s.handleGetPressureCurve)
	router.HandleFunc("PUT /api/devices/{id}/pressure-curve", s.handleSetPressureCurve)
	router.HandleFunc("GET /api/devices/{id}/threshold", s.handleGetThreshold)
	router.HandleFunc("PUT /api/devices/{id}/threshold", s.handleSetThreshold)
	router.HandleFunc("GET /api/devices/{id}/cursor-proximity", s.handleGetCursorProximity)
	router.HandleFunc("PUT /api/devices/{id}/cursor-proximity", s.handleSetCursorProximity)
	router.HandleFunc("GET /api/devices/{id}/area", s.handleGetArea)
	router.HandleFunc("PUT /api/devices/{id}/area", s.handleSetArea)
	router.HandleFunc("POST /api/devices/{id}/area/reset", s.handleResetArea)
	router.HandleFunc("GET /api/devices/{id}/area/default", s.handleGetDefaultArea)
	router.HandleFunc("PUT /api/devices/{id}/output", s.handleSetOutput)
	router.HandleFunc("GET /api/devices/{id}/handedness", s.handleGetHandedness)
	router.HandleFunc("PUT /api/devices/{id}/handedness", s.handleSetHandedness)

	// 監視サービス関連のエンドポイント
	router.HandleFunc("POST /api/watch/start", s.handleStartWatch)
	router.HandleFunc("POST /api/watch/stop", s.handleStopWatch)
	router.HandleFunc("GET /api/watch/status", s.handleWatchStatus)

	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)
}

// 設定取得ハンドラ
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetConfig())
}

// 設定更新ハンドラ
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	newConfig := config.DefaultConfig()

	if err := json.NewDecoder(r.Body).Decode(newConfig); err != nil {
		writeError(w, http.StatusBadRequest, "設定の解析に失敗しました")
		return
	}
	if err := newConfig.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "設定が不正です: "+err.Error())
		return
	}

	s.UpdateConfig(newConfig)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 設定保存ハンドラ
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var saveRequest struct {
		Path string `json:"path"`
	}

	if err := json.NewDecoder(r.Body).Decode(&saveRequest); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	configPath := saveRequest.Path
	if configPath == "" {
		configPath = s.configPath
	}
	if configPath == "" {
		// デフォルトパスを使用
		userConfigDir, err := config.GetDefaultConfigDir()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "デフォルト設定ディレクトリの取得に失敗しました")
			return
		}
		configPath = filepath.Join(userConfigDir, "config.toml")
	}

	if err := config.SaveConfig(configPath, s.GetConfig()); err != nil {
		writeError(w, http.StatusInternalServerError, "設定の保存に失敗しました: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"path":   configPath,
	})
}

// プロファイル適用ハンドラ
func (s *Server) handleApplyProfiles(w http.ResponseWriter, r *http.Request) {
	report, err := profile.Apply(s.tablet(), s.GetConfig().Profiles)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// デバイス一覧取得ハンドラ
func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.tablet().ListDevices()
	if err != nil {
		writeTabletError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, devices)
}

// 筆圧カーブ取得ハンドラ
func (s *Server) handleGetPressureCurve(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	curve, err := s.tablet().PressureCurve(id)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, curve)
}

// 筆圧カーブ設定ハンドラ
func (s *Server) handleSetPressureCurve(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var curve wacom.PressureCurve
	if !decodeBody(w, r, &curve) {
		return
	}
	if err := s.tablet().SetPressureCurve(id, curve); err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type valueBody struct {
	Value *int `json:"value"`
}

// クリック閾値取得ハンドラ
func (s *Server) handleGetThreshold(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	threshold, err := s.tablet().Threshold(id)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"value": threshold})
}

// クリック閾値設定ハンドラ
func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var body valueBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, "value が必要です")
		return
	}
	if err := s.tablet().SetThreshold(id, *body.Value); err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 近接距離取得ハンドラ
func (s *Server) handleGetCursorProximity(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	proximity, err := s.tablet().CursorProximity(id)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"value": proximity})
}

// 近接距離設定ハンドラ
func (s *Server) handleSetCursorProximity(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var body valueBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, "value が必要です")
		return
	}
	if err := s.tablet().SetCursorProximity(id, *body.Value); err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 領域取得ハンドラ
func (s *Server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	area, err := s.tablet().Area(id)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

// 領域設定ハンドラ
func (s *Server) handleSetArea(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var area wacom.Area
	if !decodeBody(w, r, &area) {
		return
	}
	if err := s.tablet().SetArea(id, area); err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 領域リセットハンドラ
func (s *Server) handleResetArea(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	if err := s.tablet().ResetArea(id); err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// デフォルト領域取得ハンドラ
func (s *Server) handleGetDefaultArea(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	area, err := s.tablet().DefaultArea(id)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

// 出力先設定ハンドラ
func (s *Server) handleSetOutput(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var body struct {
		Display string      `json:"display"`
		Area    *wacom.Area `json:"area"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	var err error
	switch {
	case body.Display != "" && body.Area != nil:
		writeError(w, http.StatusBadRequest, "display と area はどちらか一方を指定してください")
		return
	case body.Display != "":
		err = s.tablet().SetOutputFromDisplay(id, body.Display)
	case body.Area != nil:
		err = s.tablet().SetOutputFromArea(id, *body.Area)
	default:
		writeError(w, http.StatusBadRequest, "display か area が必要です")
		return
	}
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 利き手取得ハンドラ
func (s *Server) handleGetHandedness(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	h, err := s.tablet().Handedness(id)
	if err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]wacom.Handedness{"handedness": h})
}

// 利き手設定ハンドラ
func (s *Server) handleSetHandedness(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var body struct {
		Handedness wacom.Handedness `json:"handedness"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.tablet().SetHandedness(id, body.Handedness); err != nil {
		writeTabletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 監視開始ハンドラ
func (s *Server) handleStartWatch(w http.ResponseWriter, r *http.Request) {
	if s.watch.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_running"})
		return
	}

	if err := s.watch.Start(s.GetConfig()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("監視の開始に失敗しました: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// 監視停止ハンドラ
func (s *Server) handleStopWatch(w http.ResponseWriter, r *http.Request) {
	if !s.watch.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "not_running"})
		return
	}

	if err := s.watch.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("監視の停止に失敗しました: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// 監視状態取得ハンドラ
func (s *Server) handleWatchStatus(w http.ResponseWriter, r *http.Request) {
	status := "stopped"
	if s.watch.IsRunning() {
		status = "running"
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// deviceID はパスの{id}を数値として取り出す
func deviceID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "デバイスIDが不正です: "+r.PathValue("id"))
		return 0, false
	}
	return id, true
}

// decodeBody はリクエストボディをJSONとして読み込む
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return false
	}
	return true
}
