package usecase

import (
	"context"
	"strings"

	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
)

type UserListInput struct {
	Page     int    `form:"page"`
	PerPage  int    `form:"perPage"`
	Username string `form:"username"`
	Email    string `form:"email"`
	Role     string `form:"role" validate:"omitempty,oneof=admin doctor user"`
	Status   string `form:"status" validate:"omitempty,oneof=REGISTERED REVIEWED CONFIRMED BANNED"`
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Password string `json:"password" validate:"required,password"`
	Role     string `json:"role" validate:"omitempty,oneof=admin doctor user"`
	Status   string `json:"status" validate:"omitempty,oneof=REGISTERED REVIEWED CONFIRMED BANNED"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

// UpdateUserInput leaves nil fields untouched.
type UpdateUserInput struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=32"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Password *string `json:"password" validate:"omitempty,password"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin doctor user"`
	Status   *string `json:"status" validate:"omitempty,oneof=REGISTERED REVIEWED CONFIRMED BANNED"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

// UserService is the admin view over accounts.
type UserService struct {
	users storage.UserRepo
}

func NewUserService(users storage.UserRepo) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, in UserListInput) (*ListResult[model.User], error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	page, limit := normalizePage(in.Page, in.PerPage)
	users, total, err := s.users.ListUsers(ctx, storage.UserFilter{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Role:     in.Role,
		Status:   in.Status,
		Page:     pageWindow(page, limit),
	})
	if err != nil {
		return nil, err
	}
	return newListResult(users, total, page, limit), nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserConflict(ctx, in.Username, in.Email, "", "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicate("a user with this username or email")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hash,
		Role:     in.Role,
		Status:   in.Status,
		Avatar:   in.Avatar,
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Status == "" {
		user.Status = model.UserStatusRegistered
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindUserByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	in.Username, in.Email = trimPtr(in.Username), trimPtr(in.Email)
	if in.Email != nil {
		lower := strings.ToLower(*in.Email)
		in.Email = &lower
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var username, email string
	if in.Username != nil && *in.Username != user.Username {
		username = *in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		email = *in.Email
	}
	if username != "" || email != "" {
		existing, err := s.users.FindUserConflict(ctx, username, email, "", id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, duplicate("a user with this username or email")
		}
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Status != nil {
		user.Status = *in.Status
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.SoftDeleteUser(ctx, id)
}
