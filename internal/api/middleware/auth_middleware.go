package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type UserIDKey struct{}

// GuestHeader はゲストIDを引き継ぐためのリクエストヘッダーです。
const GuestHeader = "X-Guest-ID"

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// PlayerIdentity はプレイヤーIDをコンテキストに設定するミドルウェアを返します。
//
// Bearerトークンがあれば jwtSecret で検証し、'sub' クレームをプレイヤーIDにします。
// トークンが不正な場合は401を返します。トークンがなければゲストとして扱い、
// X-Guest-ID ヘッダーのUUID（なければ新しいUUID）をプレイヤーIDにします。
// jwtSecret が空の場合はトークンを検証できないので、全員ゲストです。
func PlayerIdentity(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || jwtSecret == "" {
				guestID := r.Header.Get(GuestHeader)
				if _, err := uuid.Parse(guestID); err != nil {
					guestID = uuid.New().String()
				}
				w.Header().Set(GuestHeader, guestID)
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), "guest-"+guestID)))
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
				return
			}

			userID, err := parseSubject(tokenString, jwtSecret)
			if err != nil {
				log.Printf("[AuthMiddleware] JWT error: %v", err)
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// parseSubject はHMACで署名されたJWTを検証し、'sub' クレームを返します。
func parseSubject(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing 'sub' claim")
	}
	return sub, nil
}
