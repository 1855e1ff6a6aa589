package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/services/tetris" // SessionManager をインポート
)

// GameHandler はゲーム関連のHTTPリクエスト（セッション作成、入力、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager // ゲームセッションの管理サービス
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm             : セッションマネージャーへのポインタ
//   allowedOrigins : WebSocket接続を許可するオリジン（"*" ですべて許可）
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, allowedOrigins []string) *GameHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &GameHandler{
		sessionManager: sm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Originヘッダーのないクライアント（ネイティブのレンダラーなど）は許可
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// CreateSession は新しいゲームセッションを作成するためのHTTPハンドラーです。
// POST /api/sessions  {"start_level": 0}
func (h *GameHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		StartLevel *int `json:"start_level"`
	}
	// ボディは省略可能（設定の開始レベルを使う）
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}

	sessionID, err := h.sessionManager.CreateSession(userID, req.StartLevel)
	if err != nil {
		log.Printf("[GameHandler] Failed to create session for user %s: %v", userID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "セッションの作成に失敗しました")
		return
	}

	snap, _ := h.sessionManager.GetSnapshot(sessionID)
	WriteJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"session_id": sessionID,
		"player_id":  userID,
		"snapshot":   snap,
	})
}

// GetSession はセッションの現在の状態（直前のフレーム終了時点）を返します。
// GET /api/sessions/{sessionID}
func (h *GameHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	snap, ok := h.sessionManager.GetSnapshot(sessionID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}
	WriteJSONResponse(w, http.StatusOK, snap)
}

// SubmitInput はキーイベントを次のフレームの入力として受け付けます。
// POST /api/sessions/{sessionID}/input  {"type": "key_down", "action": "move_left"}
func (h *GameHandler) SubmitInput(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	var ev tetris.InputEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}

	err := h.sessionManager.SubmitInput(sessionID, ev)
	switch {
	case errors.Is(err, tetris.ErrSessionNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
	case errors.Is(err, tetris.ErrInvalidInput):
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	case err != nil:
		WriteErrorResponse(w, http.StatusInternalServerError, "入力の受付に失敗しました")
	default:
		WriteJSONResponse(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

// EndSession はセッションを終了します。
// DELETE /api/sessions/{sessionID}
func (h *GameHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if err := h.sessionManager.EndSession(sessionID); err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// その後、WebSocketメッセージの送受信をセッションマネージャーに引き渡します。
// GET /api/ws/{sessionID}
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if _, ok := h.sessionManager.GetSnapshot(sessionID); !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}

	// HTTP接続をWebSocket接続にアップグレード
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for session %s: %v", sessionID, err)
		return // アップグレード失敗時はエラーログのみ
	}
	// ここでは閉じない。SessionManagerが管理するため。

	if err := h.sessionManager.RegisterClient(sessionID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client for session %s: %v", sessionID, err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
	}
}
