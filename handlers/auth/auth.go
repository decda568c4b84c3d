package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	stateCookie = "oauthstate"
	tokenTTL    = time.Hour * 24 * 7
)

var (
	githubOauthConfig *oauth2.Config
	jwtSecret         []byte
	ownerLogin        string
)

// AppClaims represents the custom claims for the JWT.
type AppClaims struct {
	jwt.RegisteredClaims
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Name      string `json:"name,omitempty"`
}

// InitAuth reads JWT_SECRET, OWNER_LOGIN and the GitHub OAuth settings.
func InitAuth() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	ownerLogin = os.Getenv("OWNER_LOGIN")

	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. The catalog API is open to anyone who can reach it.")
	}

	if os.Getenv("GITHUB_CLIENT_ID") == "" || os.Getenv("GITHUB_CLIENT_SECRET") == "" {
		logrus.Warn("GitHub OAuth credentials are not set. Login routes will not work.")
		githubOauthConfig = nil
		return
	}
	if ownerLogin == "" {
		logrus.Warn("OWNER_LOGIN is not set. Any GitHub account can log in.")
	}
	logrus.Info("Initializing GitHub authentication provider.")
	githubOauthConfig = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GITHUB_REDIRECT_URL"),
		Scopes:       []string{"read:user"},
		Endpoint:     github.Endpoint,
	}
}

// Enabled reports whether tokens are signed and checked.
func Enabled() bool {
	return len(jwtSecret) > 0
}

func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	cookie := &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
	return state
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	if githubOauthConfig == nil {
		http.Error(w, "Authentication not configured", http.StatusInternalServerError)
		return
	}
	state := generateStateOauthCookie(w)
	url := githubOauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func HandleCallback(w http.ResponseWriter, r *http.Request) {
	if githubOauthConfig == nil {
		http.Error(w, "Authentication not configured", http.StatusInternalServerError)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.FormValue("state") {
		logrus.Warn("OAuth state mismatch")
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	token, err := githubOauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		logrus.Errorf("failed to exchange token: %s", err.Error())
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	user, err := fetchGitHubUser(r.Context(), githubOauthConfig.Client(r.Context(), token))
	if err != nil {
		logrus.Errorf("failed to get user from github: %s", err.Error())
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if ownerLogin != "" && !strings.EqualFold(user.Login, ownerLogin) {
		logrus.WithField("login", user.Login).Warn("Login refused for non-owner account")
		http.Error(w, "This catalog belongs to another account", http.StatusForbidden)
		return
	}

	jwtToken, err := IssueToken(user)
	if err != nil {
		logrus.Errorf("failed to create JWT: %s", err.Error())
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	// Redirect to frontend with token
	http.Redirect(w, r, fmt.Sprintf("/?token=%s", jwtToken), http.StatusTemporaryRedirect)
}

// Owner identifies whoever a token is issued to.
type Owner struct {
	Subject   string
	Login     string
	AvatarURL string
	Name      string
}

func fetchGitHubUser(ctx context.Context, client *http.Client) (Owner, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.github.com/user", nil)
	if err != nil {
		return Owner{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Owner{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Owner{}, fmt.Errorf("read github response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Owner{}, fmt.Errorf("github returned %s", resp.Status)
	}

	var githubUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		Name      string `json:"name"`
	}
	if err := json.Unmarshal(body, &githubUser); err != nil {
		return Owner{}, fmt.Errorf("unmarshal github user: %w", err)
	}

	return Owner{
		Subject:   fmt.Sprintf("github:%d", githubUser.ID),
		Login:     githubUser.Login,
		AvatarURL: githubUser.AvatarURL,
		Name:      githubUser.Name,
	}, nil
}

// IssueToken signs a week-long token for owner.
func IssueToken(owner Owner) (string, error) {
	if !Enabled() {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	now := time.Now()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Login:     owner.Login,
		AvatarURL: owner.AvatarURL,
		Name:      owner.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		if ownerLogin != "" && !strings.EqualFold(claims.Login, ownerLogin) {
			return nil, fmt.Errorf("token was not issued to the owner")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
