package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	storagemock "gitlab.com/timkado/api/clinic-case-service/internal/storage/mock"
)

func newQRCodeService(qrcodes *storagemock.QRCodeRepoMock, franchises *storagemock.FranchiseRepoMock, now time.Time) *QRCodeService {
	svc := NewQRCodeService(qrcodes, franchises, qrcode.NewGenerator("919800000000"))
	svc.now = func() time.Time { return now }
	return svc
}

func TestQRCodeService_Create(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	franchise := model.NewFranchise()

	t.Run("new code", func(t *testing.T) {
		qrcodes := new(storagemock.QRCodeRepoMock)
		franchises := new(storagemock.FranchiseRepoMock)
		defer qrcodes.AssertExpectations(t)
		svc := newQRCodeService(qrcodes, franchises, now)

		franchises.On("FindFranchiseByID", mock.Anything, franchise.ID).Return(franchise, nil)
		qrcodes.On("FindFirstQRCodeByFranchise", mock.Anything, franchise.ID).Return(nil, nil)
		qrcodes.On("CreateQRCode", mock.Anything, mock.AnythingOfType("*model.QRCode")).Return(nil)

		qr, err := svc.Create(context.Background(), franchise.ID)
		require.NoError(t, err)
		assert.Equal(t, qrcode.NewCode(franchise.ID, now), qr.Code)
		assert.Equal(t, "https://wa.me/919800000000?text=QRCODE:"+qr.Code, qr.WhatsappLink)
		assert.True(t, strings.HasPrefix(qr.QRImage, "data:image/png;base64,"))
		assert.True(t, qr.IsActive)
		assert.Same(t, franchise, qr.Franchise)
	})

	t.Run("franchise already has one", func(t *testing.T) {
		qrcodes := new(storagemock.QRCodeRepoMock)
		franchises := new(storagemock.FranchiseRepoMock)
		svc := newQRCodeService(qrcodes, franchises, now)

		franchises.On("FindFranchiseByID", mock.Anything, franchise.ID).Return(franchise, nil)
		qrcodes.On("FindFirstQRCodeByFranchise", mock.Anything, franchise.ID).Return(model.NewQRCode(franchise.ID), nil)

		_, err := svc.Create(context.Background(), franchise.ID)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		qrcodes.AssertNotCalled(t, "CreateQRCode", mock.Anything, mock.Anything)
	})

	t.Run("unknown franchise", func(t *testing.T) {
		qrcodes := new(storagemock.QRCodeRepoMock)
		franchises := new(storagemock.FranchiseRepoMock)
		svc := newQRCodeService(qrcodes, franchises, now)

		franchises.On("FindFranchiseByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

		_, err := svc.Create(context.Background(), "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		qrcodes.AssertNotCalled(t, "FindFirstQRCodeByFranchise", mock.Anything, mock.Anything)
	})
}

func TestQRCodeService_UpdateRegenerates(t *testing.T) {
	qrcodes := new(storagemock.QRCodeRepoMock)
	franchises := new(storagemock.FranchiseRepoMock)
	defer qrcodes.AssertExpectations(t)
	defer franchises.AssertExpectations(t)
	now := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	svc := newQRCodeService(qrcodes, franchises, now)

	oldFranchise := model.NewFranchise()
	target := model.NewFranchise()
	qr := model.NewQRCode(oldFranchise.ID)
	oldCode := qr.Code

	qrcodes.On("FindQRCodeByID", mock.Anything, qr.ID).Return(qr, nil)
	franchises.On("FindFranchiseByID", mock.Anything, target.ID).Return(target, nil)
	qrcodes.On("UpdateQRCode", mock.Anything, qr).Return(nil)

	updated, err := svc.Update(context.Background(), qr.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, qr.ID, updated.ID)
	assert.Equal(t, target.ID, updated.FranchiseID)
	assert.NotEqual(t, oldCode, updated.Code)
	assert.Equal(t, qrcode.NewCode(target.ID, now), updated.Code)
	assert.NotEmpty(t, updated.QRImage)
}
