package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/auth"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
)

// RegisterInput is a new account request.
type RegisterInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// UpdateAccountInput changes the fields that are non-nil.
type UpdateAccountInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// UserService registers and authenticates wallet holders.
type UserService struct {
	tx         dbx.Transactor
	repos      repomanager.RepositoryManager
	auth       *auth.Service
	wallet     DIDCreator
	walletName string
	logger     logging.Logger

	// dummyHash is compared against when the username is unknown so both
	// login failures cost one bcrypt verification.
	dummyHash string
	verify    func(plain, hash string) bool
}

const dummyPassword = "holder-login-placeholder"

// NewUserService wires the service. wallet may be nil, in which case new
// accounts get no DID.
func NewUserService(tx dbx.Transactor, repos repomanager.RepositoryManager, a *auth.Service,
	wallet DIDCreator, walletName string, logger logging.Logger) *UserService {
	s := &UserService{
		tx:         tx,
		repos:      repos,
		auth:       a,
		wallet:     wallet,
		walletName: walletName,
		logger:     logger.With("module", "users"),
		verify:     a.VerifyPassword,
	}

	// HashPassword only fails on an invalid cost, which config rejects.
	s.dummyHash, _ = a.HashPassword(dummyPassword)
	return s
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationErr("invalid email address")
	}
	return nil
}

func validatePassword(p string) error {
	if n := utf8.RuneCountInString(p); n < 8 || n > 128 {
		return validationErr("password must be 8 to 128 characters")
	}
	return nil
}

func (in *RegisterInput) validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 50 {
		return validationErr("username must be 3 to 50 characters")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.FullName != nil {
		if n := utf8.RuneCountInString(*in.FullName); n < 1 || n > 255 {
			return validationErr("full name must be 1 to 255 characters")
		}
	}
	return nil
}

// Register creates the account and signs the holder in. A failure to
// obtain a DID from the wallet is logged and the account is created
// without one. A taken username is rejected before the wallet is asked for
// a DID; the unique constraints still decide races.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repos.Users(tx).GetByUsername(ctx, in.Username)
		return err
	})
	switch {
	case err == nil:
		return nil, fmt.Errorf("register: %w: username already registered", common.ErrDuplicateUser)
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var did *string
	if s.wallet != nil {
		d, err := s.wallet.CreateDID(ctx)
		if err != nil {
			s.logger.Warn(ctx, "did creation failed, registering without did", "username", in.Username, "error", err)
		} else {
			did = &d.DID
		}
	}

	var walletID *string
	if s.walletName != "" {
		walletID = &s.walletName
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repos.Users(tx).Create(ctx, &models.User{
			Username:       in.Username,
			Email:          in.Email,
			HashedPassword: hash,
			FullName:       in.FullName,
			DID:            did,
			WalletID:       walletID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "has_did", did != nil)
	return s.issue(user)
}

// Login checks the password. Unknown users and wrong passwords are
// reported identically as ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repos.Users(tx).GetByUsername(ctx, strings.TrimSpace(username))
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.verify(password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrUserInactive
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.auth.CreateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, TokenType: common.TokenType, User: user}, nil
}

// Authenticate resolves a bearer token to an identity. Expired and
// malformed tokens are logged apart but both return ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.auth.VerifyToken(token)
	switch {
	case err == nil:
		return claims.Identity(), nil
	case errors.Is(err, common.ErrExpiredSession):
		s.logger.Info(ctx, "session expired")
	default:
		s.logger.Warn(ctx, "malformed session token", "error", err)
	}
	return nil, common.ErrUnauthorized
}

func (s *UserService) Me(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repos.Users(tx).GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAccount applies email and password changes in one unit of work.
func (s *UserService) UpdateAccount(ctx context.Context, userID int64, in UpdateAccountInput) (*models.User, error) {
	if in.Email == nil && in.Password == nil {
		return nil, validationErr("nothing to update")
	}

	var email, hash string
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		var err error
		if hash, err = s.auth.HashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)
		if in.Email != nil {
			ok, err := repo.UpdateEmail(ctx, userID, email)
			if err != nil {
				return err
			}
			if !ok {
				return common.ErrNotFound
			}
		}
		if in.Password != nil {
			ok, err := repo.UpdatePassword(ctx, userID, hash)
			if err != nil {
				return err
			}
			if !ok {
				return common.ErrNotFound
			}
		}
		var err error
		user, err = repo.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return user, nil
}

func (s *UserService) AssignDID(ctx context.Context, userID int64, did string) error {
	did = strings.TrimSpace(did)
	if did == "" {
		return validationErr("did is required")
	}
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repos.Users(tx).UpdateDID(ctx, userID, did)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrNotFound
		}
		return nil
	})
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var list []*models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repos.Users(tx).List(ctx, limit, offset)
		return err
	})
	return list, err
}

func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repos.Users(tx).Delete(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrNotFound
		}
		return nil
	})
}
