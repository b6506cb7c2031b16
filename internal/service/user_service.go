package service

import (
	"context"
	"log/slog"
	"strings"

	"community/internal/middleware"
	"community/internal/models"
	"community/internal/repository"
	"community/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	store      repository.Store
	tokens     *TokenService
	bcryptCost int
}

type SignupInput struct {
	Email    string
	Password string
	Nickname string
	Image    string
}

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult is a logged-in user with a fresh token pair.
type LoginResult struct {
	User   *models.User
	Tokens *TokenPair
}

// UpdateProfileInput changes only the fields that are non-nil.
type UpdateProfileInput struct {
	UserID   uint
	Nickname *string
	Password *string
	Image    *string
}

func NewUserService(store repository.Store, tokens *TokenService) *UserService {
	return &UserService{store: store, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// Signup creates an account. Emails and nicknames of withdrawn accounts stay taken.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if !validation.Email(email) {
		return nil, models.NewValidationError("email must be a valid email address")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateNickname(in.Nickname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Email already in use", nil)
	}
	if taken, err = s.store.Users().ExistsByNickname(ctx, in.Nickname); err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Nickname already in use", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Nickname: in.Nickname,
		Image:    in.Image,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// Login checks the credentials, issues tokens and records the attempt either way.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	entry := &models.LoginHistory{Email: email, IP: in.IP, UserAgent: in.UserAgent}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordLogin(ctx, entry, models.LoginFailed, "unknown email")
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	entry.UserID = &user.ID

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		s.recordLogin(ctx, entry, models.LoginFailed, "password mismatch")
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.recordLogin(ctx, entry, models.LoginSuccess, "")

	user.Password = ""
	return &LoginResult{User: user, Tokens: pair}, nil
}

// recordLogin never fails the login it describes.
func (s *UserService) recordLogin(ctx context.Context, entry *models.LoginHistory, status, reason string) {
	entry.Status = status
	entry.Reason = reason
	if err := s.store.LoginHistory().Record(ctx, entry); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record login history",
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
	}
}

// Logout revokes the caller's tokens and closes the latest login history row.
func (s *UserService) Logout(ctx context.Context, p *middleware.Principal) error {
	if err := s.tokens.Revoke(ctx, p); err != nil {
		return err
	}
	return s.store.LoginHistory().StampLogout(ctx, p.UserID, s.tokens.now())
}

// Refresh rotates the token pair of the refresh token's owner.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	pair, user, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: pair}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// UpdateProfile changes nickname, password and image.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	var columns []string
	if in.Nickname != nil && *in.Nickname != user.Nickname {
		if err := validation.ValidateNickname(*in.Nickname); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		taken, err := s.store.Users().ExistsByNickname(ctx, *in.Nickname)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Nickname already in use", nil)
		}
		user.Nickname = *in.Nickname
		columns = append(columns, "nickname")
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
		columns = append(columns, "password")
	}
	if in.Image != nil {
		user.Image = strings.TrimSpace(*in.Image)
		columns = append(columns, "image")
	}

	if len(columns) == 0 {
		return user, nil
	}
	if err := s.store.Users().Update(ctx, user, append(columns, "updated_at")...); err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// Withdraw soft-deletes the caller. Boards, comments and likes stay and show a deleted member.
func (s *UserService) Withdraw(ctx context.Context, p *middleware.Principal) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().Delete(ctx, p.UserID); err != nil {
			return err
		}
		return tx.Tokens().Expire(ctx, p.UserID, s.tokens.now())
	})
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, p)
}

func (s *UserService) IsNicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	taken, err := s.store.Users().ExistsByNickname(ctx, nickname)
	return !taken, err
}

func (s *UserService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.store.Users().ExistsByEmail(ctx, normalizeEmail(email))
	return !taken, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
