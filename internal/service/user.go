package service

import (
	"StockKeeper/internal/apperr"
	"StockKeeper/internal/auth"
	"StockKeeper/internal/model"
	"StockKeeper/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Ошибки уникальности; оба — вид apperr.ErrConflict.
var (
	ErrUsernameTaken = fmt.Errorf("username already taken: %w", apperr.ErrConflict)
	ErrEmailTaken    = fmt.Errorf("email already taken: %w", apperr.ErrConflict)
)

const minPasswordLength = 8

// UserService — регистрация, аутентификация и операции над учётками.
type UserService struct {
	repo repo.UserRepository
}

// NewUserService создаёт сервис пользователей.
func NewUserService(r repo.UserRepository) *UserService {
	return &UserService{repo: r}
}

// UserInput — клиентские поля учётки для PUT/PATCH. nil — не прислано.
type UserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func validateRegistration(username, email, password string) error {
	ve := apperr.NewValidation()
	if username == "" {
		ve.Add("username", "this field is required")
	}
	if !strings.Contains(email, "@") {
		ve.Add("email", "enter a valid email address")
	}
	if len(password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return ve.OrNil()
}

// Register создаёт учётку. E-mail нормализуется в нижний регистр,
// пароль хранится только как bcrypt-хеш.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}
	email = strings.ToLower(email)

	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateUser(ctx, &model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     model.RoleNormal,
	})
}

// Login проверяет пару логин/пароль. Любое несовпадение — Unauthenticated,
// без уточнения, что именно не так.
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	return u, nil
}

// canTouch: свою учётку может трогать каждый, чужую — только админ.
func canTouch(p auth.Principal, id int64) bool {
	return p.IsAdmin() || p.UserID == id
}

// Get возвращает учётку: свою или, для админа, любую.
func (s *UserService) Get(ctx context.Context, p auth.Principal, id int64) (*model.User, error) {
	if !canTouch(p, id) {
		return nil, apperr.ErrForbidden
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// List — страница всех учёток, только для админа.
func (s *UserService) List(ctx context.Context, p auth.Principal, page int) (repo.Page[model.User], error) {
	if !p.IsAdmin() {
		return repo.Page[model.User]{}, apperr.ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, page)
}

// Update меняет присланные поля учётки. Роль меняет только админ,
// новый пароль перехешируется.
func (s *UserService) Update(ctx context.Context, p auth.Principal, id int64, in UserInput) (*model.User, error) {
	if !canTouch(p, id) {
		return nil, apperr.ErrForbidden
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	ve := apperr.NewValidation()

	if in.Username != nil && *in.Username != u.Username {
		if *in.Username == "" {
			ve.Add("username", "must not be empty")
		} else if _, err := s.repo.GetUserByUsername(ctx, *in.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		} else {
			u.Username = *in.Username
		}
	}

	if in.Email != nil {
		email := strings.ToLower(*in.Email)
		if !strings.Contains(email, "@") {
			ve.Add("email", "enter a valid email address")
		} else if email != u.Email {
			if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			} else {
				u.Email = email
			}
		}
	}

	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			ve.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			u.Password = string(hash)
		}
	}

	if in.Role != nil && *in.Role != u.Role {
		if !p.IsAdmin() {
			return nil, apperr.ErrForbidden
		}
		if *in.Role != model.RoleNormal && *in.Role != model.RoleAdmin {
			ve.Add("role", "must be one of: normal, admin")
		} else {
			u.Role = *in.Role
		}
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete удаляет учётку, только админ.
func (s *UserService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if !p.IsAdmin() {
		return apperr.ErrForbidden
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
