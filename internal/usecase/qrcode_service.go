package usecase

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// QRCodeService manages franchise QR codes. A franchise has at most one.
type QRCodeService struct {
	qrcodes    storage.QRCodeRepo
	franchises storage.FranchiseRepo
	generator  *qrcode.Generator
	now        func() time.Time
}

func NewQRCodeService(qrcodes storage.QRCodeRepo, franchises storage.FranchiseRepo, generator *qrcode.Generator) *QRCodeService {
	return &QRCodeService{qrcodes: qrcodes, franchises: franchises, generator: generator, now: utils.Now}
}

func (s *QRCodeService) Create(ctx context.Context, franchiseID string) (*model.QRCode, error) {
	franchise, err := s.franchises.FindFranchiseByID(ctx, franchiseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.qrcodes.FindFirstQRCodeByFranchise(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: QR code already exists for franchise %s", apperrors.ErrConflict, franchiseID)
	}

	qr, err := s.generator.Build(franchise, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.qrcodes.CreateQRCode(ctx, qr); err != nil {
		return nil, err
	}
	qr.Franchise = franchise
	return qr, nil
}

func (s *QRCodeService) List(ctx context.Context) ([]model.QRCode, error) {
	return s.qrcodes.ListQRCodes(ctx)
}

func (s *QRCodeService) Get(ctx context.Context, id string) (*model.QRCode, error) {
	return s.qrcodes.FindQRCodeByID(ctx, id)
}

func (s *QRCodeService) GetByCode(ctx context.Context, code string) (*model.QRCode, error) {
	return s.qrcodes.FindQRCodeByCode(ctx, code)
}

// Update points the code at franchiseID and regenerates its link and image.
func (s *QRCodeService) Update(ctx context.Context, id, franchiseID string) (*model.QRCode, error) {
	qr, err := s.qrcodes.FindQRCodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	franchise, err := s.franchises.FindFranchiseByID(ctx, franchiseID)
	if err != nil {
		return nil, err
	}

	if err := s.generator.Render(qr, franchise, s.now()); err != nil {
		return nil, err
	}
	if err := s.qrcodes.UpdateQRCode(ctx, qr); err != nil {
		return nil, err
	}
	qr.Franchise = franchise
	return qr, nil
}

func (s *QRCodeService) Deactivate(ctx context.Context, id string) error {
	return s.qrcodes.DeactivateQRCode(ctx, id)
}
