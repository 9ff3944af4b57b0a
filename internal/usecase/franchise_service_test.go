package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/qrcode"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	storagemock "gitlab.com/timkado/api/clinic-case-service/internal/storage/mock"
)

func validFranchiseInput() FranchiseInput {
	return FranchiseInput{
		Name:       "  Sunrise Clinic ",
		Address:    "12 MG Road",
		City:       "Indore",
		State:      "Madhya Pradesh",
		PostalCode: "452001",
		Country:    "India",
		Phone:      "+91 98123 45678",
		Email:      "Front@Sunrise.example",
	}
}

func TestFranchiseService_CreateBuildsFirstQRCode(t *testing.T) {
	repo := new(storagemock.FranchiseRepoMock)
	defer repo.AssertExpectations(t)
	svc := NewFranchiseService(repo, qrcode.NewGenerator("919800000000"))

	repo.On("FindFranchiseConflict", mock.Anything, "Sunrise Clinic", "front@sunrise.example", "+91 98123 45678", "").
		Return(nil, nil)
	repo.On("CreateFranchiseWithQRCode", mock.Anything,
		mock.MatchedBy(func(f *model.Franchise) bool { return f.ID != "" && f.IsActive }),
		mock.MatchedBy(func(qr *model.QRCode) bool {
			return strings.HasPrefix(qr.Code, "FRAN-") && strings.HasPrefix(qr.QRImage, "data:image/png;base64,")
		}),
	).Return(nil)

	franchise, err := svc.Create(context.Background(), validFranchiseInput())
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Clinic", franchise.Name)
	require.Len(t, franchise.QRCodes, 1)
	assert.Equal(t, franchise.ID, franchise.QRCodes[0].FranchiseID)
	assert.Contains(t, franchise.QRCodes[0].Code, franchise.ID)
}

func TestFranchiseService_CreateRejectsDuplicateName(t *testing.T) {
	repo := new(storagemock.FranchiseRepoMock)
	defer repo.AssertExpectations(t)
	svc := NewFranchiseService(repo, qrcode.NewGenerator("919800000000"))

	repo.On("FindFranchiseConflict", mock.Anything, "Sunrise Clinic", mock.Anything, mock.Anything, "").
		Return(&model.Franchise{ID: "other", Name: "sunrise clinic"}, nil)

	_, err := svc.Create(context.Background(), validFranchiseInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Contains(t, err.Error(), "name")
	repo.AssertNotCalled(t, "CreateFranchiseWithQRCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestFranchiseService_CreateValidates(t *testing.T) {
	svc := NewFranchiseService(new(storagemock.FranchiseRepoMock), qrcode.NewGenerator("919800000000"))

	in := validFranchiseInput()
	in.Name = ""
	in.Email = "not-an-email"
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFranchiseService_UpdateExcludesItself(t *testing.T) {
	repo := new(storagemock.FranchiseRepoMock)
	defer repo.AssertExpectations(t)
	svc := NewFranchiseService(repo, qrcode.NewGenerator("919800000000"))

	existing := &model.Franchise{ID: "f-1", Name: "Old Name", IsActive: true}
	repo.On("FindFranchiseByID", mock.Anything, "f-1").Return(existing, nil)
	repo.On("FindFranchiseConflict", mock.Anything, "Sunrise Clinic", "front@sunrise.example", "+91 98123 45678", "f-1").
		Return(nil, nil)
	repo.On("UpdateFranchise", mock.Anything, existing).Return(nil)

	updated, err := svc.Update(context.Background(), "f-1", validFranchiseInput())
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Clinic", updated.Name)
	assert.Equal(t, "Indore", updated.City)
}

func TestFranchiseService_ListPaging(t *testing.T) {
	repo := new(storagemock.FranchiseRepoMock)
	defer repo.AssertExpectations(t)
	svc := NewFranchiseService(repo, qrcode.NewGenerator("919800000000"))

	repo.On("ListFranchises", mock.Anything, storage.FranchiseFilter{
		City:      "Indore",
		SortBy:    "name",
		SortOrder: "asc",
		Page:      storage.Page{Offset: 20, Limit: 10},
	}).Return([]model.Franchise{{ID: "f-1"}}, int64(21), nil)

	res, err := svc.List(context.Background(), FranchiseListInput{Skip: 20, Limit: 10, Sort: "name", Order: "asc", City: " Indore "})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page)
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Result, 1)
}

func TestQRCodeService_CreateAllowsOnePerFranchise(t *testing.T) {
	qrs := new(storagemock.QRCodeRepoMock)
	franchises := new(storagemock.FranchiseRepoMock)
	defer qrs.AssertExpectations(t)
	defer franchises.AssertExpectations(t)
	svc := NewQRCodeService(qrs, franchises, qrcode.NewGenerator("919800000000"))

	franchise := model.NewFranchise()
	franchises.On("FindFranchiseByID", mock.Anything, franchise.ID).Return(franchise, nil)
	qrs.On("FindFirstQRCodeByFranchise", mock.Anything, franchise.ID).Return(model.NewQRCode(franchise.ID), nil)

	_, err := svc.Create(context.Background(), franchise.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestQRCodeService_CreateLinksFranchise(t *testing.T) {
	qrs := new(storagemock.QRCodeRepoMock)
	franchises := new(storagemock.FranchiseRepoMock)
	defer qrs.AssertExpectations(t)
	defer franchises.AssertExpectations(t)
	svc := NewQRCodeService(qrs, franchises, qrcode.NewGenerator("919800000000"))

	franchise := model.NewFranchise()
	franchises.On("FindFranchiseByID", mock.Anything, franchise.ID).Return(franchise, nil)
	qrs.On("FindFirstQRCodeByFranchise", mock.Anything, franchise.ID).Return(nil, nil)
	qrs.On("CreateQRCode", mock.Anything, mock.AnythingOfType("*model.QRCode")).Return(nil)

	qr, err := svc.Create(context.Background(), franchise.ID)
	require.NoError(t, err)
	assert.Equal(t, franchise.ID, qr.FranchiseID)
	assert.Equal(t, "https://wa.me/919800000000?text=QRCODE:"+qr.Code, qr.WhatsappLink)
	assert.Same(t, franchise, qr.Franchise)
}

func TestQRCodeService_UpdateRepointsFranchise(t *testing.T) {
	qrs := new(storagemock.QRCodeRepoMock)
	franchises := new(storagemock.FranchiseRepoMock)
	defer qrs.AssertExpectations(t)
	defer franchises.AssertExpectations(t)
	svc := NewQRCodeService(qrs, franchises, qrcode.NewGenerator("919800000000"))

	qr := model.NewQRCode("old-franchise")
	target := model.NewFranchise()
	qrs.On("FindQRCodeByID", mock.Anything, qr.ID).Return(qr, nil)
	franchises.On("FindFranchiseByID", mock.Anything, target.ID).Return(target, nil)
	qrs.On("UpdateQRCode", mock.Anything, qr).Return(nil)

	updated, err := svc.Update(context.Background(), qr.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, updated.FranchiseID)
	assert.Contains(t, updated.Code, target.ID)
	assert.NotEmpty(t, updated.QRImage)
}
