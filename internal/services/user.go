package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists users and their session tokens
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleSubject(ctx context.Context, subject string) (*models.User, error)
	LinkGoogle(ctx context.Context, userID, subject string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	CreateToken(ctx context.Context, token *models.AuthToken) error
	TokenActive(ctx context.Context, tokenID, userID string) (bool, error)
	DeleteToken(ctx context.Context, tokenID string) error
	DeleteWithTokens(ctx context.Context, userID string) error
}

// RegisterInput holds the fields of an email sign-up
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=64"`
}

// LoginInput holds email credentials
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginInput carries either an ID token from a mobile client or an
// authorization code from the web flow
type GoogleLoginInput struct {
	IDToken string `json:"id_token" validate:"required_without=Code"`
	Code    string `json:"code" validate:"required_without=IDToken"`
}

// Session is returned after a successful sign-in
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// UserService handles accounts, sign-in and session tokens
type UserService struct {
	userRepo  UserStore
	images    ImageCascade
	google    GoogleVerifier
	validate  *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService creates a new user service. google may be nil when Google
// sign-in is not configured.
func NewUserService(userRepo UserStore, images ImageCascade, google GoogleVerifier, validate *validator.Validate, jwtSecret string, ttlDays int) *UserService {
	return &UserService{
		userRepo:  userRepo,
		images:    images,
		google:    google,
		validate:  validate,
		jwtSecret: jwtSecret,
		tokenTTL:  time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// GenerateJWT stores a session row for the user and signs a token bound to it
func (s *UserService) GenerateJWT(ctx context.Context, userID string) (string, time.Time, error) {
	now := time.Now()
	session := &models.AuthToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.userRepo.CreateToken(ctx, session); err != nil {
		return "", time.Time{}, err
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     session.ID,
		"exp":     session.ExpiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, session.ExpiresAt, nil
}

// ValidateJWT validates a token and its session row, returning the user and session IDs
func (s *UserService) ValidateJWT(ctx context.Context, tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", "", &apperr.Error{Kind: apperr.KindUnauthorized, Message: "invalid token", Err: err}
	}

	if !token.Valid {
		return "", "", apperr.New(apperr.KindUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", apperr.New(apperr.KindUnauthorized, "invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	tokenID, _ := claims["jti"].(string)
	if userID == "" || tokenID == "" {
		return "", "", apperr.New(apperr.KindUnauthorized, "invalid token claims")
	}

	active, err := s.userRepo.TokenActive(ctx, tokenID, userID)
	if err != nil {
		return "", "", err
	}
	if !active {
		return "", "", apperr.New(apperr.KindUnauthorized, "session expired")
	}

	return userID, tokenID, nil
}

func (s *UserService) session(ctx context.Context, user *models.User) (*Session, error) {
	token, expiresAt, err := s.GenerateJWT(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates an email/password account and signs it in
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	user, err := s.userRepo.Create(ctx, &models.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: &hashed,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return s.session(ctx, user)
}

// Login checks email credentials
func (s *UserService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	badCredentials := apperr.New(apperr.KindUnauthorized, "invalid email or password")
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, badCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, badCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, badCredentials
	}

	return s.session(ctx, user)
}

// GoogleLogin signs a user in with Google, creating the account or linking
// an existing one with the same verified email
func (s *UserService) GoogleLogin(ctx context.Context, input GoogleLoginInput) (*Session, error) {
	if s.google == nil {
		return nil, apperr.BadRequest("google sign-in is not configured")
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	rawIDToken := input.IDToken
	if rawIDToken == "" {
		var err error
		rawIDToken, err = s.google.Exchange(ctx, input.Code)
		if err != nil {
			return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "google sign-in failed", Err: err}
		}
	}

	identity, err := s.google.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "google sign-in failed", Err: err}
	}
	if !identity.EmailVerified || identity.Email == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "google account email is not verified")
	}

	user, err := s.userRepo.GetByGoogleSubject(ctx, identity.Subject)
	if err == nil {
		return s.session(ctx, user)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	email := strings.ToLower(identity.Email)
	user, err = s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.userRepo.LinkGoogle(ctx, user.ID, identity.Subject); err != nil {
			return nil, err
		}
		log.Info().Str("user_id", user.ID).Msg("Google account linked")
	case errors.Is(err, apperr.ErrNotFound):
		subject := identity.Subject
		user, err = s.userRepo.Create(ctx, &models.User{
			Email:         email,
			Name:          identity.Name,
			GoogleSubject: &subject,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("user_id", user.ID).Msg("User registered with google")
	default:
		return nil, err
	}

	return s.session(ctx, user)
}

// Logout ends one session
func (s *UserService) Logout(ctx context.Context, tokenID string) error {
	return s.userRepo.DeleteToken(ctx, tokenID)
}

// Me returns the signed-in user
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdatePushToken sets or clears the device token used for push reminders
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	if pushToken != nil && strings.TrimSpace(*pushToken) == "" {
		pushToken = nil
	}
	return s.userRepo.UpdatePushToken(ctx, userID, pushToken)
}

// DeleteAccount removes the user's avatar and poster, then the user and
// every session in one transaction
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	pointers := []struct {
		id *string
		et models.EntityType
	}{
		{user.Avatar, models.EntityAvatars},
		{user.Poster, models.EntityPosters},
	}
	for _, p := range pointers {
		if p.id == nil {
			continue
		}
		if _, err := s.images.RemoveAll(ctx, *p.id, p.et, user.ID); err != nil &&
			!errors.Is(err, apperr.ErrNoImagesToDelete) {
			return err
		}
	}

	if err := s.userRepo.DeleteWithTokens(ctx, userID); err != nil {
		return err
	}

	log.Info().Str("user_id", userID).Msg("User deleted")
	return nil
}
