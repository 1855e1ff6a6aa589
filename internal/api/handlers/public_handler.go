package handlers

import (
	"fmt"
	"log"
	"net/http"
)

// PublicHandlerFunc は認証不要のヘルスチェック用エンドポイントです。
// GET /api/public
func PublicHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log.Println("[PublicHandler] Request to public endpoint: /api/public")
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "Hello, this is public content! (From /api/public)")
}
