package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Nyukimin/tabitenki/internal/application/orchestrator"
	"github.com/Nyukimin/tabitenki/internal/domain/translation"
	"github.com/Nyukimin/tabitenki/internal/domain/weather"
)

const (
	msgMessageRequired = "Message is required and must be a string"
	msgTextRequired    = "Text is required"
	msgTextsRequired   = "Texts must be a non-empty array of strings"

	maxBodyBytes = 1 << 20
)

// chatBody はチャットリクエストの本文
// message は型検査のため any で受ける
type chatBody struct {
	Message         any    `json:"message"`
	SessionID       string `json:"sessionId"`
	PreferBilingual *bool  `json:"preferBilingual"`
}

// toRequest は本文をパイプラインのリクエストに変換
// preferBilingual の既定値は true
func (b chatBody) toRequest() (orchestrator.ChatRequest, bool) {
	msg, ok := b.Message.(string)
	if !ok || msg == "" {
		return orchestrator.ChatRequest{}, false
	}
	bilingual := true
	if b.PreferBilingual != nil {
		bilingual = *b.PreferBilingual
	}
	return orchestrator.ChatRequest{
		Message:         msg,
		SessionID:       b.SessionID,
		PreferBilingual: bilingual,
	}, true
}

// handleHealth はヘルスチェック
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": s.opts.Now(),
	})
}

// handleChat はチャットパイプラインを実行
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMessageRequired})
		return
	}

	req, ok := body.toRequest()
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMessageRequired})
		return
	}

	status, payload := s.runChat(r, req)
	writeJSON(w, status, payload)
}

// runChat はパイプラインを実行し、ステータスと応答本文を返す
// WebSocket と共通の封筒形式
func (s *Server) runChat(r *http.Request, req orchestrator.ChatRequest) (int, any) {
	resp, err := s.deps.Chat.Chat(r.Context(), req)
	switch {
	case errors.Is(err, orchestrator.ErrInvalidMessage):
		return http.StatusBadRequest, errorBody{Error: msgMessageRequired}
	case err != nil:
		log.Printf("[HTTP] Chat endpoint error: %v", err)
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Timestamp: timestamp(s.opts.Now())}
	}
	return http.StatusOK, successBody{Success: true, Data: resp}
}

// handleSessionStats はセッション統計を返す
func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Sessions.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: stats})
}

// handleSessionClear はセッションを削除
func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.deps.Sessions.Clear(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	message := "Session not found"
	if cleared {
		message = "Session cleared"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": cleared,
		"message": message,
	})
}

// handleSessionHistory は最近のメッセージ履歴を返す
func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	history, err := s.deps.Sessions.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: history})
}

// handleTranslate は単独翻訳（日本語以外はそのまま返す）
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text    string `json:"text"`
		Context string `json:"context"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgTextRequired})
		return
	}

	if !translation.IsJapanese(body.Text) {
		writeJSON(w, http.StatusOK, successBody{Success: true, Data: map[string]any{
			"originalText":   body.Text,
			"translatedText": body.Text,
			"isJapanese":     false,
		}})
		return
	}

	var (
		result *translation.Simple
		err    error
	)
	if strings.TrimSpace(body.Context) != "" {
		result, err = s.deps.Translation.TranslateWithContext(r.Context(), body.Text, body.Context)
	} else {
		result, err = s.deps.Translation.TranslateSimple(r.Context(), body.Text)
	}
	if err != nil {
		log.Printf("[HTTP] Translation error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, successBody{Success: true, Data: translatedText{Simple: *result, IsJapanese: true}})
}

// translatedText は翻訳結果に isJapanese を加えたもの
type translatedText struct {
	translation.Simple
	IsJapanese bool `json:"isJapanese"`
}

// handleTranslateBatch は複数テキストを順に翻訳
func (s *Server) handleTranslateBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Texts []string `json:"texts"`
	}
	if err := decodeJSON(r, &body); err != nil || len(body.Texts) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgTextsRequired})
		return
	}

	results := s.deps.Translation.TranslateBatch(r.Context(), body.Texts)
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: results})
}

// handleWeatherCurrent は現在の天気を返す
func (s *Server) handleWeatherCurrent(w http.ResponseWriter, r *http.Request) {
	data, err := s.deps.Weather.GetCurrent(r.Context(), weather.CityQuery(r.PathValue("city")))
	if err != nil {
		writeWeatherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherBody{Success: true, Data: data, Type: "current"})
}

// handleWeatherComplete は現在の天気と予報を返す
func (s *Server) handleWeatherComplete(w http.ResponseWriter, r *http.Request) {
	data, err := s.deps.Weather.GetComplete(r.Context(), weather.CityQuery(r.PathValue("city")))
	if err != nil {
		writeWeatherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherBody{Success: true, Data: data, Type: "complete"})
}

// handleWeatherCoords は緯度経度で天気と予報を返す
func (s *Server) handleWeatherCoords(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeWeatherError(w, weather.ErrInvalidQuery)
		return
	}

	data, err := s.deps.Weather.GetComplete(r.Context(), weather.CoordsQuery(lat, lon))
	if err != nil {
		writeWeatherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherBody{Success: true, Data: data, Type: "complete"})
}

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

type weatherBody struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Type    string `json:"type,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeWeatherError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, weatherBody{Success: false, Error: err.Error()})
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}
