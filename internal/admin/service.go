package admin

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrInvalidToken   = errors.New("invalid token")
)

type Config struct {
	Username string
	// Password is the plaintext fallback compared in constant time; set
	// PasswordHash (bcrypt) instead wherever possible.
	Password     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Username:     os.Getenv("ADMIN_USER"),
		Password:     os.Getenv("ADMIN_PASS"),
		PasswordHash: os.Getenv("ADMIN_PASS_HASH"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenTTL:     12 * time.Hour,
	}
}

// Service authenticates the single admin account and mints session
// tokens for the blog editor. Credentials live in the environment; there
// is no user table behind this.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Authenticate verifies the admin username and password.
func (s *Service) Authenticate(username, password string) error {
	if s.cfg.Username == "" {
		return ErrBadCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1

	var passOK bool
	if s.cfg.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)) == nil
	} else {
		passOK = s.cfg.Password != "" &&
			subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	}

	if !userOK || !passOK {
		return ErrBadCredentials
	}
	return nil
}

// IssueToken mints an HS256 session token for the authenticated admin.
func (s *Service) IssueToken(username string) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", errors.New("JWT_SECRET not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  "digital-indian",
		"sub":  username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks a session token and returns the subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
