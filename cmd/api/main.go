package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/services/tetris"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// DATABASE_URL があればPostgreSQL、なければメモリ上に結果を保存する
	var resultRepo database.ResultRepository
	if cfg.DatabaseURL != "" {
		dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("データベースサービスの初期化に失敗しました: %v", err)
		}
		defer dbService.Close()
		if err := dbService.EnsureSchema(); err != nil {
			log.Fatalf("スキーマの作成に失敗しました: %v", err)
		}
		resultRepo = database.NewResultRepository(dbService.DB)
	} else {
		log.Println("warning: DATABASE_URL が未設定のため、ゲーム結果はメモリ上にのみ保存されます")
		resultRepo = database.NewMemoryResultRepository()
	}

	if cfg.JWTSecret == "" {
		log.Println("warning: JWT_SECRET が未設定のため、すべてのプレイヤーはゲストとして扱われます")
	}

	sessionManager := tetris.NewSessionManager(cfg.Rules, cfg.TickRate, resultRepo)
	go sessionManager.Run()

	handler := api.NewRouter(api.RouterConfig{
		SessionManager: sessionManager,
		ResultRepo:     resultRepo,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		log.Printf("Server starting on :%s (tick rate %d)", cfg.Port, cfg.TickRate)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバーの起動に失敗しました: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("サーバーのシャットダウン中にエラーが発生しました: %v", err)
	}
	sessionManager.Shutdown()
}
