package main

import (
	"fmt"
	"log"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/database"
)

// dbcheck はDATABASE_URLへの接続とresultsテーブルの準備を確認するツールです。
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("エラー: 設定の読み込みに失敗しました: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("エラー: %v", err)
	}
	defer dbService.Close()
	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	if err := dbService.EnsureSchema(); err != nil {
		log.Fatalf("エラー: %v", err)
	}

	var version string
	if err := dbService.DB.QueryRow("SELECT version()").Scan(&version); err != nil {
		log.Printf("警告: SELECT version() クエリの実行に失敗しました: %v", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	top, err := database.NewResultRepository(dbService.DB).GetTopResults(1)
	if err != nil {
		log.Fatalf("エラー: resultsテーブルの読み込みに失敗しました: %v", err)
	}
	if len(top) == 0 {
		fmt.Println("resultsテーブルは空です。")
	} else {
		fmt.Printf("現在の1位: %s (%d点)\n", top[0].UserID, top[0].Score)
	}
}
