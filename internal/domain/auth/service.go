package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/polyeduhub/polyeduhub-api/internal/domain/user"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/jwt"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/password"
)

// ActivityLogger records user activity, best effort
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID int64, action, details string)
}

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	redis      *redis.Client // nil if Redis disabled
	activity   ActivityLogger
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, redis *redis.Client, activity ActivityLogger) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		redis:      redis,
		activity:   activity,
	}
}

// Register creates a student account. Admins are promoted in the database.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         user.RoleStudent,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logActivity(ctx, u.ID, "register", "Account created")
	return s.generateTokens(ctx, u)
}

// Login authenticates user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	s.logActivity(ctx, u.ID, "login", "Signed in")
	return s.generateTokens(ctx, u)
}

// Refresh rotates the refresh token and issues a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	userID, err := s.getRefreshToken(ctx, refreshHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}

	_ = s.deleteRefreshToken(ctx, refreshHash)

	return s.generateTokens(ctx, u)
}

// Logout invalidates refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.deleteRefreshToken(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

// UpdateProfile changes display name and avatar
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*UserResponse, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, req.FirstName, req.LastName, req.ProfileImage); err != nil {
		return nil, err
	}
	s.logActivity(ctx, userID, "profile_update", "Profile updated")
	return s.GetCurrentUser(ctx, userID)
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	resp := &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken: accessToken,
			ExpiresIn:   int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:   "Bearer",
		},
	}

	// Without Redis there is nowhere to keep refresh tokens; clients re-login.
	if s.redis == nil {
		return resp, nil
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, jwt.HashRefreshToken(refreshToken), u.ID); err != nil {
		return nil, err
	}
	resp.Tokens.RefreshToken = refreshToken

	return resp, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) logActivity(ctx context.Context, userID int64, action, details string) {
	if s.activity != nil {
		s.activity.LogActivity(ctx, userID, action, details)
	}
}

// Redis helpers (handle nil redis gracefully)
func (s *Service) storeRefreshToken(ctx context.Context, tokenHash string, userID int64) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, "refresh:"+tokenHash, userID, s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) getRefreshToken(ctx context.Context, tokenHash string) (int64, error) {
	if s.redis == nil {
		return 0, ErrInvalidRefreshToken
	}
	val, err := s.redis.Get(ctx, "refresh:"+tokenHash).Result()
	if err != nil {
		return 0, ErrInvalidRefreshToken
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *Service) deleteRefreshToken(ctx context.Context, tokenHash string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, "refresh:"+tokenHash).Err()
}
