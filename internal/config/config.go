package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/services/tetris"
)

// Config はサーバー全体の設定です。
type Config struct {
	Port           string       // HTTPサーバーのポート
	DatabaseURL    string       // PostgreSQLの接続文字列（空ならメモリ上に結果を保存）
	JWTSecret      string       // Bearerトークンの検証に使う秘密鍵（空なら常にゲスト）
	AllowedOrigins []string     // CORSで許可するオリジン
	TickRate       int          // 1秒あたりのフレーム数
	Rules          tetris.Rules // 新しいセッションに使うルール
}

// Load は .env と環境変数から設定を読み込みます。
// APP_ENV が production 以外のときだけ .env を読み込みます。
//
// Returns:
//   *Config: 読み込んだ設定
//   error  : 値が不正な場合のエラー
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("[Config] warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv は getenv から設定を組み立てます。テストでは任意の関数を渡せます。
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT"),
		DatabaseURL:    getenv("DATABASE_URL"),
		JWTSecret:      getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS")),
		TickRate:       tetris.DefaultTickRate,
		Rules:          tetris.DefaultRules(),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if path := getenv("TETRIX_RULES_FILE"); path != "" {
		rules, err := LoadRules(path, cfg.Rules)
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}

	overrides := []struct {
		key string
		dst *int
	}{
		{"TETRIX_START_LEVEL", &cfg.Rules.StartLevel},
		{"TETRIX_DAS", &cfg.Rules.DAS},
		{"TETRIX_ARR", &cfg.Rules.ARR},
		{"TETRIX_TICK_RATE", &cfg.TickRate},
	}
	for _, o := range overrides {
		raw := getenv(o.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("環境変数 %s の値が不正です: %w", o.key, err)
		}
		*o.dst = v
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("環境変数 TETRIX_TICK_RATE は正の値である必要があります: %d", cfg.TickRate)
	}

	rules, err := cfg.Rules.Normalize()
	if err != nil {
		return nil, fmt.Errorf("ルール設定が不正です: %w", err)
	}
	cfg.Rules = rules
	return cfg, nil
}

// LoadRules はYAMLのルールファイルを読み込み、base に上書きしたルールを返します。
// ファイルに書かれていない項目は base の値のままです。
func LoadRules(path string, base tetris.Rules) (tetris.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("ルールファイルの読み込みに失敗しました: %w", err)
	}
	rules := base
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return base, fmt.Errorf("ルールファイルの解析に失敗しました: %w", err)
	}
	return rules, nil
}

// splitList はカンマ区切りの文字列を空要素を除いて分割します。
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
