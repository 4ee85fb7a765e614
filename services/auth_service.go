package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/utils"
)

// SessionCartMerger moves a browser session's cart into an account cart.
type SessionCartMerger interface {
	MergeSessionCart(ctx context.Context, sessionID string, accountID int64) error
}

type CartInitializer interface {
	GetOrCreateCart(ctx context.Context, accountID int64) (int64, error)
}

type AuthService struct {
	accounts AccountStore
	carts    CartInitializer
	merger   SessionCartMerger
	tokens   *utils.TokenIssuer
	logger   *slog.Logger
}

func NewAuthService(accounts AccountStore, carts CartInitializer, merger SessionCartMerger, tokens *utils.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		carts:    carts,
		merger:   merger,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates the account and its cart, then merges the session cart into it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, sessionID string) (*models.LoginResponse, error) {
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        normalizeEmail(req.Email),
		Password:     hashedPassword,
		Role:         models.RoleCustomer,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: strings.TrimSpace(req.AddressLine2),
		City:         strings.TrimSpace(req.City),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      strings.ToUpper(strings.TrimSpace(req.Country)),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	if _, err := s.carts.GetOrCreateCart(ctx, account.ID); err != nil {
		s.logger.Warn("cart creation deferred", "account_id", account.ID, "error", err)
	}
	s.mergeSessionCart(ctx, sessionID, account.ID)

	return s.issue(account)
}

// Login verifies credentials, then merges the session cart. Merge failures never block login.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, sessionID string) (*models.LoginResponse, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, models.ErrAccountNotFound) {
		utils.BurnPasswordCheck(req.Password)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !utils.VerifyPassword(account.Password, req.Password) {
		return nil, models.ErrInvalidCredentials
	}

	s.mergeSessionCart(ctx, sessionID, account.ID)
	return s.issue(account)
}

func (s *AuthService) GetProfile(ctx context.Context, accountID int64) (*models.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

func (s *AuthService) mergeSessionCart(ctx context.Context, sessionID string, accountID int64) {
	if s.merger == nil || sessionID == "" {
		return
	}
	if err := s.merger.MergeSessionCart(ctx, sessionID, accountID); err != nil {
		s.logger.Warn("login continued without full cart merge", "account_id", accountID, "error", err)
	}
}

func (s *AuthService) issue(account *models.Account) (*models.LoginResponse, error) {
	token, err := s.tokens.GenerateToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, Account: account}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
