package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campus-hub/campus-events-api/internal/config"
	"github.com/campus-hub/campus-events-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	GoogleAuthorizeEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenEndpoint     = "https://oauth2.googleapis.com/token"
	GoogleUserInfoAPI       = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// TokenDuration is the lifetime of an auth_token cookie.
const TokenDuration = 24 * time.Hour

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  GoogleAuthorizeEndpoint,
				TokenURL: GoogleTokenEndpoint,
			},
		},
		db:  db,
		cfg: cfg,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	resp, err := client.Get(GoogleUserInfoAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	// Campus gate: only accounts on the configured email domain may sign in.
	if h.cfg.AllowedEmailDomain != "" &&
		!strings.HasSuffix(strings.ToLower(googleUser.Email), "@"+strings.ToLower(h.cfg.AllowedEmailDomain)) {
		http.Error(w, "Access denied: a campus email address is required.", http.StatusForbidden)
		return
	}

	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{GoogleID: googleUser.ID}).Error; err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	user.Email = googleUser.Email
	user.Name = googleUser.Name
	user.AvatarURL = googleUser.Picture
	if user.Role == "" {
		user.Role = models.RoleStudent
	}

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    jwtToken,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})

	if h.cfg.FrontendURL != "" {
		http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
		return
	}
	w.Write([]byte(fmt.Sprintf("Welcome %s! You are logged in.", user.Name)))
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

type MeRequest struct {
	AuthInput
}

type MeResponse struct {
	Body struct {
		ID         uint        `json:"id"`
		Email      string      `json:"email"`
		Name       string      `json:"name"`
		Role       models.Role `json:"role"`
		Department string      `json:"department"`
		StudentID  string      `json:"student_id"`
		AvatarURL  string      `json:"avatar_url"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *MeRequest) (*MeResponse, error) {
	user, err := h.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	res := &MeResponse{}
	res.Body.ID = user.ID
	res.Body.Email = user.Email
	res.Body.Name = user.Name
	res.Body.Role = user.Role
	res.Body.Department = user.Department
	res.Body.StudentID = user.StudentID
	res.Body.AvatarURL = user.AvatarURL
	return res, nil
}
