package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// resultsSchema は結果テーブルの定義です。起動時に存在しなければ作成します。
const resultsSchema = `
	CREATE TABLE IF NOT EXISTS results (
		id            BIGSERIAL PRIMARY KEY,
		user_id       TEXT        NOT NULL,
		score         INTEGER     NOT NULL,
		lines_cleared INTEGER     NOT NULL DEFAULT 0,
		level         INTEGER     NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS results_score_idx ON results (score DESC, created_at ASC);
`

// DatabaseService はデータベース接続を保持します。
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService はデータベースに接続し、DatabaseService を返します。
//
// Parameters:
//   databaseURL : PostgreSQLの接続文字列
// Returns:
//   *DatabaseService: 接続済みのサービス
//   error           : 接続に失敗した場合のエラー
func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	log.Printf("[Database] データベース接続を試行中: %s", databaseHost(databaseURL))
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	// データベース接続の確認 (Ping)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("[Database] データベースに正常に接続しました。")
	return &DatabaseService{DB: db}, nil
}

// EnsureSchema は結果テーブルを作成します（既にあれば何もしません）。
func (s *DatabaseService) EnsureSchema() error {
	if _, err := s.DB.Exec(resultsSchema); err != nil {
		return fmt.Errorf("resultsテーブルの作成に失敗しました: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

// databaseHost はログ用に接続文字列からホスト部分だけを取り出します。
// 認証情報はログに出しません。
func databaseHost(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Host == "" {
		return "(unknown host)"
	}
	return u.Host
}
