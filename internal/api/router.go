package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/services/tetris"
)

// RouterConfig はルーターの組み立てに必要な依存関係です。
type RouterConfig struct {
	SessionManager *tetris.SessionManager
	ResultRepo     database.ResultRepository
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter はAPIのルーティングを設定した http.Handler を返します。
func NewRouter(cfg RouterConfig) http.Handler {
	gameHandler := handlers.NewGameHandler(cfg.SessionManager, cfg.AllowedOrigins)
	resultHandler := handlers.NewResultHandler(cfg.ResultRepo)

	r := mux.NewRouter()
	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/public", handlers.PublicHandlerFunc).Methods(http.MethodGet)
	r.HandleFunc("/api/results", resultHandler.GetTopResults).Methods(http.MethodGet)
	r.HandleFunc("/api/results/user/{userID}", resultHandler.GetUserResult).Methods(http.MethodGet)

	// セッション操作（トークンがあればそのユーザー、なければゲスト）
	sessions := r.PathPrefix("/api").Subrouter()
	sessions.Use(middleware.PlayerIdentity(cfg.JWTSecret))
	sessions.HandleFunc("/sessions", gameHandler.CreateSession).Methods(http.MethodPost)
	sessions.HandleFunc("/sessions/{sessionID}", gameHandler.GetSession).Methods(http.MethodGet)
	sessions.HandleFunc("/sessions/{sessionID}", gameHandler.EndSession).Methods(http.MethodDelete)
	sessions.HandleFunc("/sessions/{sessionID}/input", gameHandler.SubmitInput).Methods(http.MethodPost)
	sessions.HandleFunc("/ws/{sessionID}", gameHandler.HandleWebSocketConnection).Methods(http.MethodGet)

	return middleware.CORSHandler(cfg.AllowedOrigins)(r)
}
