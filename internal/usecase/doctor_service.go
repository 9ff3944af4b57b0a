package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

type DoctorListInput struct {
	Page      int    `form:"page"`
	PerPage   int    `form:"perPage"`
	Specialty string `form:"specialty"`
}

type CreateDoctorInput struct {
	Name      string `json:"name" validate:"required,min=2,max=128"`
	Specialty string `json:"specialty" validate:"max=64"`
	Phone     string `json:"phone" validate:"required,phone"`
	Username  string `json:"username" validate:"required,min=3,max=32"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
}

// UpdateDoctorInput leaves nil fields untouched. Password requires
// PasswordToRevoke to match the account's current password.
type UpdateDoctorInput struct {
	Name             *string `json:"name" validate:"omitempty,min=2,max=128"`
	Specialty        *string `json:"specialty" validate:"omitempty,max=64"`
	Phone            *string `json:"phone" validate:"omitempty,phone"`
	Username         *string `json:"username" validate:"omitempty,min=3,max=32"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Password         *string `json:"password" validate:"omitempty,password"`
	PasswordToRevoke *string `json:"passwordToRevoke"`
}

type DoctorService struct {
	doctors storage.DoctorRepo
	users   storage.UserRepo
}

func NewDoctorService(doctors storage.DoctorRepo, users storage.UserRepo) *DoctorService {
	return &DoctorService{doctors: doctors, users: users}
}

func (s *DoctorService) List(ctx context.Context, in DoctorListInput) (*ListResult[model.Doctor], error) {
	page, limit := normalizePage(in.Page, in.PerPage)
	doctors, total, err := s.doctors.ListDoctors(ctx, storage.DoctorFilter{
		Specialty: strings.TrimSpace(in.Specialty),
		Page:      pageWindow(page, limit),
	})
	if err != nil {
		return nil, err
	}
	return newListResult(doctors, total, page, limit), nil
}

// Create opens a doctor account and profile in one transaction.
func (s *DoctorService) Create(ctx context.Context, in CreateDoctorInput) (*model.Doctor, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserConflict(ctx, in.Username, in.Email, in.Phone, "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicate("a user with this username, email or phone")
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
		Role:     model.RoleDoctor,
		Status:   model.UserStatusRegistered,
	}
	doctor := &model.Doctor{
		Name:      in.Name,
		Specialty: strings.TrimSpace(in.Specialty),
		Phone:     in.Phone,
		IsActive:  true,
	}
	if err := s.doctors.CreateDoctorWithUser(ctx, user, doctor); err != nil {
		return nil, err
	}
	doctor.User = user

	logger.FromContext(ctx).Info("Doctor created",
		zap.String("doctor_id", doctor.ID),
		zap.String("user_id", user.ID),
	)
	return doctor, nil
}

func (s *DoctorService) Get(ctx context.Context, id string) (*model.Doctor, error) {
	return s.doctors.FindDoctorByID(ctx, id)
}

func (s *DoctorService) Update(ctx context.Context, id string, in UpdateDoctorInput) (*model.Doctor, error) {
	in.Name, in.Username, in.Phone = trimPtr(in.Name), trimPtr(in.Username), trimPtr(in.Phone)
	if in.Email != nil {
		lower := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &lower
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.FindDoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		doctor.Name = *in.Name
	}
	if in.Specialty != nil {
		doctor.Specialty = strings.TrimSpace(*in.Specialty)
	}
	if in.Phone != nil {
		doctor.Phone = *in.Phone
	}

	user, err := s.updatedAccount(ctx, doctor, in)
	if err != nil {
		return nil, err
	}
	if err := s.doctors.UpdateDoctorWithUser(ctx, doctor, user); err != nil {
		return nil, err
	}
	if user != nil {
		doctor.User = user
	}
	return doctor, nil
}

// updatedAccount applies the account fields of in to the doctor's user. It
// returns nil when none of them changed.
func (s *DoctorService) updatedAccount(ctx context.Context, doctor *model.Doctor, in UpdateDoctorInput) (*model.User, error) {
	if in.Username == nil && in.Email == nil && in.Phone == nil && in.Password == nil {
		return nil, nil
	}

	user := doctor.User
	if user == nil {
		found, err := s.users.FindUserByID(ctx, doctor.UserID)
		if err != nil {
			return nil, err
		}
		user = found
	}

	var username, email, phone string
	if in.Username != nil && *in.Username != user.Username {
		username = *in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		email = *in.Email
	}
	if in.Phone != nil && *in.Phone != user.Phone {
		phone = *in.Phone
	}
	if username != "" || email != "" || phone != "" {
		existing, err := s.users.FindUserConflict(ctx, username, email, phone, user.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, duplicate("a user with this username, email or phone")
		}
	}

	updated := *user
	if in.Username != nil {
		updated.Username = *in.Username
	}
	if in.Email != nil {
		updated.Email = *in.Email
	}
	if in.Phone != nil {
		updated.Phone = *in.Phone
	}
	if in.Password != nil {
		if in.PasswordToRevoke == nil || *in.PasswordToRevoke == "" {
			return nil, apperrors.NewFieldError("passwordToRevoke is required to change the password")
		}
		if err := auth.ComparePassword(user.Password, *in.PasswordToRevoke); err != nil {
			return nil, apperrors.NewFieldError("passwordToRevoke does not match the current password")
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updated.Password = hash
	}
	return &updated, nil
}

func (s *DoctorService) Deactivate(ctx context.Context, id string) error {
	return s.doctors.DeactivateDoctor(ctx, id)
}

func (s *DoctorService) Delete(ctx context.Context, id string) error {
	return s.doctors.DeleteDoctor(ctx, id)
}
