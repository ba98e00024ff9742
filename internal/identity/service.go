// Package identity is the sign-in provider: email/password accounts stored
// in the accounts table, anonymous guest credentials that are never stored,
// and a per-client credential stream.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email address is already in use")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidEmail       = errors.New("invalid email address")
)

// AuthError is returned by every failed sign-in or account creation. Its
// message is meant to be shown to the user as is.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Credential identifies who is signed in. Anonymous credentials have no email.
type Credential struct {
	UID       string
	Email     string
	Anonymous bool
}

type Service struct {
	db     *gorm.DB
	logger *logging.Logger
	// compared against when the email is unknown so both paths cost one bcrypt run
	dummyHash []byte
}

func NewService(db *gorm.DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)
	return &Service{db: db, logger: logger, dummyHash: hash}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Credential, error) {
	email = normalizeEmail(email)

	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, &AuthError{Op: "sign in", Err: ErrInvalidCredentials}
	}
	if err != nil {
		s.logger.WithError(err).Error("account lookup failed")
		return nil, &AuthError{Op: "sign in", Err: fmt.Errorf("sign in failed: %w", err)}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, &AuthError{Op: "sign in", Err: ErrInvalidCredentials}
	}

	return &Credential{UID: account.ID, Email: account.Email}, nil
}

// SignInAnonymously issues a fresh guest credential. Nothing is persisted.
func (s *Service) SignInAnonymously(ctx context.Context) (*Credential, error) {
	return &Credential{UID: "anon-" + uuid.NewString(), Anonymous: true}, nil
}

// CreateAccount registers email/password credentials. It does not sign the
// caller in as the new account.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (*Credential, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &AuthError{Op: "create account", Err: ErrInvalidEmail}
	}
	if len(password) < MinPasswordLength {
		return nil, &AuthError{Op: "create account", Err: ErrWeakPassword}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &AuthError{Op: "create account", Err: fmt.Errorf("hash password: %w", err)}
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailInUse
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		if !errors.Is(err, ErrEmailInUse) {
			s.logger.WithError(err).Error("create account failed", "email", email)
		}
		return nil, &AuthError{Op: "create account", Err: err}
	}

	s.logger.Info("account created", "uid", account.ID, "email", email)
	return &Credential{UID: account.ID, Email: account.Email}, nil
}

// Lookup restores a named credential by uid. It returns nil, nil when the
// account no longer exists. Anonymous uids are never found.
func (s *Service) Lookup(ctx context.Context, uid string) (*Credential, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("id = ?", uid).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account %s: %w", uid, err)
	}
	return &Credential{UID: account.ID, Email: account.Email}, nil
}
