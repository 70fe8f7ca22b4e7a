package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/samatvayoga/backend/internal/config"
	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
	"github.com/samatvayoga/backend/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrEmailTaken         = errors.New("email already registered")
)

// AuthService is the identity backend: email/password sign-in, JWT access
// tokens, rotating refresh tokens, and the auth-state stream the session
// provider subscribes to.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config

	mu      sync.Mutex
	current *session.Principal
	subs    map[uint64]func(*session.Principal)
	nextSub uint64
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:   db,
		cfg:  cfg,
		subs: make(map[uint64]func(*session.Principal)),
	}
}

var _ session.Backend = (*AuthService)(nil)

// --- session.Backend ---

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*session.Principal, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	principal := &session.Principal{ID: user.ID, Email: user.Email}
	s.publish(principal)
	return principal, nil
}

func (s *AuthService) SignOut(_ context.Context) error {
	s.publish(nil)
	return nil
}

// SubscribeAuthState registers a callback for auth-state changes. Events
// are delivered in publish order; the callback runs on the publisher's
// goroutine.
func (s *AuthService) SubscribeAuthState(cb func(*session.Principal)) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) CurrentPrincipal() *session.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *AuthService) publish(p *session.Principal) {
	s.mu.Lock()
	s.current = p
	cbs := make([]func(*session.Principal), 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(p)
	}
}

// --- HTTP-facing operations ---

// Login authenticates and returns a token pair. The auth-state stream sees
// the sign-in as well.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.db.WithContext(ctx).Model(user).Update("last_login_at", now)

	resp, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(&session.Principal{ID: user.ID, Email: user.Email})
	return resp, nil
}

// Refresh rotates a refresh token and returns a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.WithContext(ctx).Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.WithContext(ctx).Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	return s.generateTokenPair(ctx, &user)
}

// Logout revokes the refresh token and signals sign-out on the auth-state
// stream.
func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
	s.publish(nil)
	return err
}

// CreateUser provisions a profile with an explicit role; admin-only. The
// permission set is denormalized from the role table at creation.
func (s *AuthService) CreateUser(ctx context.Context, email, password, displayName string, role rbac.Role) (*models.User, error) {
	if email == "" || len(password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Role:         role,
		Permissions:  rbac.PermissionsFor(role),
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return &user, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        string(user.Role),
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
