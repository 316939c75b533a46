package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// AuthInput carries the credentials huma handlers authorize with: the raw
// Cookie header (auth_token JWT) or an API key header.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie carrying the auth_token JWT"`
	APIKey string `header:"X-API-Key" doc:"API key issued via /apikeys"`
}

// Authorize resolves the acting user from an API key or the auth_token
// cookie, in that order. It returns the full user row so callers can check
// the role.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (*models.User, error) {
	if input.APIKey != "" {
		var keyModel models.APIKey
		if err := h.db.WithContext(ctx).Where("key = ?", input.APIKey).First(&keyModel).Error; err == nil {
			if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
				return nil, huma.Error401Unauthorized("API key expired")
			}
			h.db.Model(&keyModel).Update("last_used_at", time.Now())
			return h.userByID(ctx, keyModel.UserID)
		}
	}

	tokenString := cookieValue(input.Cookie, "auth_token")
	if tokenString == "" {
		return nil, huma.Error401Unauthorized("No token found")
	}

	userID, err := h.parseToken(tokenString)
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid token")
	}
	return h.userByID(ctx, userID)
}

func (h *AuthHandler) userByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, huma.Error401Unauthorized("Unknown user")
	}
	return &user, nil
}

func (h *AuthHandler) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	return uint(userIDFloat), nil
}

// cookieValue pulls one cookie out of a raw Cookie header.
func cookieValue(header, name string) string {
	req := http.Request{Header: http.Header{"Cookie": []string{header}}}
	cookie, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AuthMiddleware protects plain chi routes. API key header first, then the
// JWT cookie with a sliding session: the token is reissued once it is past
// half its lifetime.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey != "" {
			var keyModel models.APIKey
			if err := h.db.Where("key = ?", apiKey).First(&keyModel).Error; err == nil {
				if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
					http.Error(w, "Unauthorized: API Key expired", http.StatusUnauthorized)
					return
				}

				h.db.Model(&keyModel).Update("last_used_at", time.Now())

				ctx := context.WithValue(r.Context(), UserIDKey, keyModel.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		cookie, err := r.Cookie("auth_token")
		if err != nil {
			if err == http.ErrNoCookie {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		tokenString := cookie.Value
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(h.cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			userIDFloat, ok := claims["user_id"].(float64)
			if !ok {
				http.Error(w, "Unauthorized: Invalid token claims", http.StatusUnauthorized)
				return
			}
			userID := uint(userIDFloat)

			// Sliding session: refresh the token once it is past half its lifetime.
			if exp, ok := claims["exp"].(float64); ok {
				remaining := time.Until(time.Unix(int64(exp), 0))
				if remaining < TokenDuration/2 {
					newToken, err := h.GenerateToken(userID)
					if err == nil {
						http.SetCookie(w, &http.Cookie{
							Name:     "auth_token",
							Value:    newToken,
							Expires:  time.Now().Add(TokenDuration),
							HttpOnly: true,
							Path:     "/",
						})
					}
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		} else {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	})
}
