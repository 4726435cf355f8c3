package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/networkqy/internal/model"
	"github.com/d60-Lab/networkqy/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownUser        = errors.New("unknown user")
	ErrInvalidToken       = errors.New("invalid session token")
)

// SessionClaims 会话 token 只携带 email，用户信息每次按 email 查询
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService cookie 会话：登录、签发/校验 token、按 email 解析用户
type AuthService interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	IssueToken(email string) (string, error)
	ParseToken(token string) (string, error)
	// SignedSessions 是否启用签名 token
	SignedSessions() bool
}

type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, secret string, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &authService{userRepo: userRepo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *authService) SignedSessions() bool { return len(s.secret) > 0 }

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *authService) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Email: normalizeEmail(email), Name: name, PasswordHash: string(hash), AnonymousHandle: anonymousHandle(email)}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *authService) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return u, nil
}

func (s *authService) IssueToken(email string) (string, error) {
	if !s.SignedSessions() {
		return "", errors.New("session signing is disabled")
	}
	now := s.now()
	claims := SessionClaims{
		Email: normalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "networkqy",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) ParseToken(token string) (string, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func anonymousHandle(email string) string {
	local := normalizeEmail(email)
	if i := strings.IndexByte(local, '@'); i > 0 {
		local = local[:i]
	}
	if len(local) > 3 {
		local = local[:3]
	}
	return "Anonymous " + strings.ToUpper(local)
}
