package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/dependencies/idgen"
	"github.com/mcoot/dinkup/internal/model"
	"github.com/mcoot/dinkup/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// Claims are the JWT claims issued at login. Subject holds the account id.
type Claims struct {
	PlayerID string `json:"pid"`
	jwt.RegisteredClaims
}

// Identity is an authenticated account together with its player
type Identity struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
	Player    *model.Player
}

// Config holds configuration for the auth service
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL:   24 * time.Hour,
		Issuer:     "dinkup",
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Service registers accounts, checks passwords and issues signed tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     idgen.Generator
	config  Config
	logger  *slog.Logger
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, ids idgen.Generator, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		config:  cfg,
		logger:  logger,
	}
}

// Register creates an account and its linked player, and signs them in
func (s *Service) Register(ctx context.Context, email, password, name string) (*Identity, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, model.ErrValidation
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	// Check if email exists
	_, err := s.storage.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	account := &model.Account{
		ID:           model.AccountID(s.ids.NewID("acct_")),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	player := &model.Player{
		ID:            model.PlayerID(s.ids.NewID("player_")),
		AccountID:     account.ID,
		Name:          name,
		Email:         email,
		Notifications: model.NotificationPrefs{Email: true},
		Active:        true,
		CreatedAt:     now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		slog.String("account_id", string(account.ID)),
		slog.String("player_id", string(player.ID)),
	)
	return s.issue(account, player)
}

// Login checks the password and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, error) {
	account, err := s.storage.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	player, err := s.storage.GetPlayerByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(account, player)
}

// ValidateToken verifies a token's signature and expiry and returns its claims
func (s *Service) ValidateToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a token to the player linked to its account
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Player, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	player, err := s.storage.GetPlayerByAccount(ctx, model.AccountID(claims.Subject))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !player.Active {
		return nil, ErrInvalidToken
	}
	return player, nil
}

// issue signs a token for the account
func (s *Service) issue(account *model.Account, player *model.Player) (*Identity, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.config.TokenTTL)
	claims := Claims{
		PlayerID: string(player.ID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(account.ID),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Identity{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account,
		Player:    player,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
