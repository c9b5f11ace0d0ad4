package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// UIは別オリジンから接続する場合がある
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleChatWebSocket はテキストフレームごとにチャットパイプラインを実行
// 各フレームはPOST /chat と同じ本文、応答も同じ封筒形式
func (s *Server) handleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HTTP] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessage)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[HTTP] websocket read error: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		payload := s.handleChatFrame(r, data)

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("[HTTP] websocket write error: %v", err)
			return
		}
	}
}

// handleChatFrame は1フレーム分のリクエストを処理
func (s *Server) handleChatFrame(r *http.Request, data []byte) any {
	var body chatBody
	if err := json.Unmarshal(data, &body); err != nil {
		return errorBody{Error: msgMessageRequired}
	}
	req, ok := body.toRequest()
	if !ok {
		return errorBody{Error: msgMessageRequired}
	}
	_, payload := s.runChat(r, req)
	return payload
}
