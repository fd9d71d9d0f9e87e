package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/validation"

	"go.uber.org/zap"
)

// AccountService registers, authenticates and manages accounts
type AccountService struct {
	users  UserRepository
	hasher *auth.Hasher
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewAccountService(users UserRepository, hasher *auth.Hasher, tokens *auth.TokenManager) *AccountService {
	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: util.GetLogger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Session is an account with a freshly issued bearer token
type Session struct {
	User  *models.User
	Token string
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a user account and signs it in
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Register")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists with this email")
		}
		util.RecordError(span, err)
		return nil, apperr.Internal(err)
	}

	util.RegistrationsTotal.Inc()
	s.logger.Info("Account registered", zap.String("account_id", user.ID))
	return s.session(user)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Authenticate checks credentials and signs the account in
func (s *AccountService) Authenticate(ctx context.Context, req *LoginRequest) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Authenticate")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.AuthAttemptsTotal.WithLabelValues("unknown_email").Inc()
			return nil, apperr.Unauthorized("Invalid email or password")
		}
		return nil, apperr.Internal(err)
	}
	if !user.IsActive {
		util.AuthAttemptsTotal.WithLabelValues("deactivated").Inc()
		return nil, apperr.Unauthorized("Account is deactivated. Please contact support.")
	}

	ok, err := s.hasher.Matches(user.PasswordHash, req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		util.AuthAttemptsTotal.WithLabelValues("bad_password").Inc()
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, apperr.Internal(err)
	}
	user.LastLogin = &now

	util.AuthAttemptsTotal.WithLabelValues("success").Inc()
	return s.session(user)
}

func (s *AccountService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{User: user, Token: token}, nil
}

// Verify resolves a bearer token to an active account
func (s *AccountService) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}

	accountID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("Not authorized, user not found")
		}
		return nil, apperr.Internal(err)
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("Not authorized, account deactivated")
	}
	return user, nil
}

// VerifyOptional is Verify that yields no account instead of failing.
func (s *AccountService) VerifyOptional(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}
	user, err := s.Verify(ctx, token)
	if err != nil {
		return nil
	}
	return user
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID string, req *ChangePasswordRequest) error {
	ctx, span := util.StartSpan(ctx, "AccountService.ChangePassword")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		return err
	}

	_, err := s.modifyUser(ctx, accountID, func(user *models.User) error {
		ok, err := s.hasher.Matches(user.PasswordHash, req.CurrentPassword)
		if err != nil {
			return apperr.Internal(err)
		}
		if !ok {
			return apperr.Validation("Current password is incorrect",
				apperr.FieldError{Field: "currentPassword", Message: "Current password is incorrect"})
		}

		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return apperr.Internal(err)
		}
		user.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("account_id", accountID))
	return nil
}

// ProfileInput is a partial profile update
type ProfileInput struct {
	Name    *string         `json:"name" validate:"omitempty,min=1,max=50"`
	Email   *string         `json:"email" validate:"omitempty,email"`
	Phone   *string         `json:"phone" validate:"omitempty,max=30"`
	Avatar  *string         `json:"avatar" validate:"omitempty,max=500"`
	Address *models.Address `json:"address"`
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, in *ProfileInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.UpdateProfile")
	defer span.End()

	trimPtr(in.Name)
	if in.Email != nil {
		*in.Email = normalizeEmail(*in.Email)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return s.modifyUser(ctx, accountID, func(user *models.User) error {
		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Email != nil {
			user.Email = *in.Email
		}
		if in.Phone != nil {
			user.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Avatar != nil {
			user.Avatar = strings.TrimSpace(*in.Avatar)
		}
		if in.Address != nil {
			if user.Address == nil {
				user.Address = &models.Address{}
			}
			user.Address.Merge(*in.Address)
		}
		return nil
	})
}

// ListUsers pages through accounts, newest first. Admin only.
func (s *AccountService) ListUsers(ctx context.Context, caller *auth.Identity, page models.PageRequest) ([]models.User, models.Pagination, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.ListUsers")
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, models.Pagination{}, err
	}
	users, total, err := s.users.ListUsers(ctx, page)
	if err != nil {
		return nil, models.Pagination{}, apperr.Internal(err)
	}
	return users, models.NewPagination(page, total), nil
}

// GetUser returns any account to an admin, or the caller's own account.
func (s *AccountService) GetUser(ctx context.Context, caller *auth.Identity, id string) (*models.User, error) {
	if err := auth.RequireOwnerOrAdmin(caller, id, "view this user"); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

// AdminUserInput is the admin account update payload
type AdminUserInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,role"`
	IsActive *bool   `json:"isActive"`
}

func (s *AccountService) UpdateUser(ctx context.Context, caller *auth.Identity, id string, in *AdminUserInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.UpdateUser")
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	trimPtr(in.Name)
	if in.Email != nil {
		*in.Email = normalizeEmail(*in.Email)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return s.modifyUser(ctx, id, func(user *models.User) error {
		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Email != nil {
			user.Email = *in.Email
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}
		return nil
	})
}

// DeleteUser deactivates an account. Admins cannot deactivate themselves.
func (s *AccountService) DeleteUser(ctx context.Context, caller *auth.Identity, id string) error {
	ctx, span := util.StartSpan(ctx, "AccountService.DeleteUser")
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return err
	}
	if caller.AccountID == id {
		return apperr.Validation("You cannot delete your own account")
	}

	_, err := s.modifyUser(ctx, id, func(user *models.User) error {
		user.IsActive = false
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Account deactivated", zap.String("account_id", id))
	return nil
}

// modifyUser applies fn to the locked account row. Errors raised by fn
// pass through unchanged.
func (s *AccountService) modifyUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	user, err := s.users.ModifyUser(ctx, id, fn)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Email already in use")
		}
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
