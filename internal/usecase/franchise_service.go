package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

type FranchiseInput struct {
	Name       string `json:"name" validate:"required,min=2,max=128"`
	Address    string `json:"address" validate:"max=256"`
	City       string `json:"city" validate:"max=64"`
	State      string `json:"state" validate:"max=64"`
	PostalCode string `json:"postalCode" validate:"max=16"`
	Country    string `json:"country" validate:"max=64"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (in *FranchiseInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
}

func (in FranchiseInput) apply(f *model.Franchise) {
	f.Name = in.Name
	f.Address = in.Address
	f.City = in.City
	f.State = in.State
	f.PostalCode = in.PostalCode
	f.Country = in.Country
	f.Phone = in.Phone
	f.Email = in.Email
}

type FranchiseListInput struct {
	Skip  int    `form:"skip"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort" validate:"omitempty,oneof=name city state createdAt updatedAt"`
	Order string `form:"order" validate:"omitempty,oneof=asc desc"`
	Name  string `form:"name"`
	City  string `form:"city"`
	State string `form:"state"`
}

// FranchiseService manages clinic locations and their first QR code.
type FranchiseService struct {
	franchises storage.FranchiseRepo
	generator  *qrcode.Generator
	now        func() time.Time
}

func NewFranchiseService(franchises storage.FranchiseRepo, generator *qrcode.Generator) *FranchiseService {
	return &FranchiseService{franchises: franchises, generator: generator, now: utils.Now}
}

// Create inserts the franchise together with its first QR code.
func (s *FranchiseService) Create(ctx context.Context, in FranchiseInput) (*model.Franchise, error) {
	in.normalize()
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, in, ""); err != nil {
		return nil, err
	}

	franchise := &model.Franchise{ID: uuid.NewString(), IsActive: true}
	in.apply(franchise)

	qr, err := s.generator.Build(franchise, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.franchises.CreateFranchiseWithQRCode(ctx, franchise, qr); err != nil {
		return nil, err
	}
	franchise.QRCodes = []model.QRCode{*qr}

	logger.FromContext(ctx).Info("Franchise created",
		zap.String("franchise_id", franchise.ID),
		zap.String("qr_code", qr.Code),
	)
	return franchise, nil
}

func (s *FranchiseService) List(ctx context.Context, in FranchiseListInput) (*ListResult[model.Franchise], error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	skip := in.Skip
	if skip < 0 {
		skip = 0
	}

	franchises, total, err := s.franchises.ListFranchises(ctx, storage.FranchiseFilter{
		Name:      strings.TrimSpace(in.Name),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		SortBy:    in.Sort,
		SortOrder: in.Order,
		Page:      storage.Page{Offset: skip, Limit: limit},
	})
	if err != nil {
		return nil, err
	}
	return newListResult(franchises, total, skip/limit+1, limit), nil
}

func (s *FranchiseService) Get(ctx context.Context, id string) (*model.Franchise, error) {
	return s.franchises.FindFranchiseByID(ctx, id)
}

func (s *FranchiseService) Update(ctx context.Context, id string, in FranchiseInput) (*model.Franchise, error) {
	in.normalize()
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	franchise, err := s.franchises.FindFranchiseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, in, id); err != nil {
		return nil, err
	}

	in.apply(franchise)
	if err := s.franchises.UpdateFranchise(ctx, franchise); err != nil {
		return nil, err
	}
	return franchise, nil
}

// Deactivate hides the franchise from listings. Its rows are kept.
func (s *FranchiseService) Deactivate(ctx context.Context, id string) error {
	return s.franchises.DeactivateFranchise(ctx, id)
}

func (s *FranchiseService) checkConflict(ctx context.Context, in FranchiseInput, excludeID string) error {
	existing, err := s.franchises.FindFranchiseConflict(ctx, in.Name, in.Email, in.Phone, excludeID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	switch {
	case strings.EqualFold(existing.Name, in.Name):
		return fmt.Errorf("%w: franchise name %q is taken", apperrors.ErrDuplicate, in.Name)
	case in.Email != "" && strings.EqualFold(existing.Email, in.Email):
		return fmt.Errorf("%w: franchise email %q is taken", apperrors.ErrDuplicate, in.Email)
	default:
		return fmt.Errorf("%w: franchise phone %q is taken", apperrors.ErrDuplicate, in.Phone)
	}
}
