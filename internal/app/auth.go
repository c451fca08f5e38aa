package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"subastas-service/internal/config"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 6

// AuthService implements account and session use cases. Sessions are JWTs
// whose token ID must also be live in the session store, so sign-out takes
// effect immediately rather than at JWT expiry.
type AuthService struct {
	userRepo   outbound.UserRepository
	sessions   outbound.SessionStore
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     zerolog.Logger
}

type AuthServiceParams struct {
	UserRepo     outbound.UserRepository
	SessionStore outbound.SessionStore
	Config       *config.Config
	Logger       zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(params AuthServiceParams) *AuthService {
	return &AuthService{
		userRepo:   params.UserRepo,
		sessions:   params.SessionStore,
		jwtSecret:  []byte(params.Config.Auth.JWTSecret),
		sessionTTL: time.Duration(params.Config.Auth.SessionTTLHours) * time.Hour,
		logger:     params.Logger.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates an account with the default user role
func (service *AuthService) Register(ctx context.Context, req inbound.RegisterRequest) (*shared.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	service.logger.Info().Str("email", email).Msg("Attempting to register account")

	if !emailPattern.MatchString(email) {
		return nil, shared.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, shared.ErrWeakPassword
	}

	if _, err := service.userRepo.GetByEmail(ctx, email); err == nil {
		service.logger.Warn().Str("email", email).Msg("Email already registered")
		return nil, shared.ErrEmailTaken
	} else if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		// Fall back to the mailbox name so listings always show something
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	user := &shared.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         shared.RoleUser,
		CreatedAt:    time.Now(),
	}

	if err := service.userRepo.Create(ctx, user); err != nil {
		service.logger.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return nil, err
	}

	service.logger.Info().
		Str("user_id", user.ID.String()).
		Str("email", email).
		Msg("Account registered")

	return user, nil
}

// Login verifies credentials and issues a session token
func (service *AuthService) Login(ctx context.Context, email, password string) (*inbound.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	service.logger.Info().Str("email", email).Msg("Attempting login")

	user, err := service.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, shared.ErrWrongCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		service.logger.Warn().Str("email", email).Msg("Wrong password")
		return nil, shared.ErrWrongCredentials
	}

	tokenID := uuid.NewString()
	now := time.Now()

	claims := jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(service.sessionTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := service.sessions.Put(ctx, tokenID, user.ID, service.sessionTTL); err != nil {
		return nil, err
	}

	service.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("Login successful")

	return &inbound.LoginResult{Token: token, User: user}, nil
}

// Logout invalidates the session behind the token
func (service *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := service.parseToken(token)
	if err != nil {
		return err
	}

	if err := service.sessions.Delete(ctx, claims.ID); err != nil {
		return err
	}

	service.logger.Info().Str("user_id", claims.Subject).Msg("Session signed out")
	return nil
}

// Resolve maps a live session token to its user. The signature must verify
// and the token ID must still be present in the session store.
func (service *AuthService) Resolve(ctx context.Context, token string) (*shared.User, error) {
	claims, err := service.parseToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := service.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}

	user, err := service.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil, shared.ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// UpdateProfile changes the display name only
func (service *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName string) (*shared.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.ErrDisplayNameRequired
	}

	if err := service.userRepo.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return nil, err
	}

	service.logger.Info().
		Str("user_id", userID.String()).
		Str("display_name", displayName).
		Msg("Profile updated")

	return service.userRepo.GetByID(ctx, userID)
}

func (service *AuthService) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return service.jwtSecret, nil
	})
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}
