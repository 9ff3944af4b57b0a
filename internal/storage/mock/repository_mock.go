package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
)

// UserRepoMock mocks the storage.UserRepo interface
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepoMock) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepoMock) FindUserConflict(ctx context.Context, username, email, phone, excludeID string) (*model.User, error) {
	args := m.Called(ctx, username, email, phone, excludeID)
	var r0 *model.User
	if v := args.Get(0); v != nil {
		r0 = v.(*model.User)
	}
	return r0, args.Error(1)
}

func (m *UserRepoMock) ListUsers(ctx context.Context, filter storage.UserFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, filter)
	var r0 []model.User
	if v := args.Get(0); v != nil {
		r0 = v.([]model.User)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *UserRepoMock) SoftDeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ storage.UserRepo = (*UserRepoMock)(nil)

// TokenRepoMock mocks the storage.TokenRepo interface
type TokenRepoMock struct {
	mock.Mock
}

func (m *TokenRepoMock) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *TokenRepoMock) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	args := m.Called(ctx, token)
	var r0 *model.RefreshToken
	if v := args.Get(0); v != nil {
		r0 = v.(*model.RefreshToken)
	}
	return r0, args.Error(1)
}

func (m *TokenRepoMock) DeleteRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *TokenRepoMock) DeleteRefreshTokensByUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var _ storage.TokenRepo = (*TokenRepoMock)(nil)

// FranchiseRepoMock mocks the storage.FranchiseRepo interface
type FranchiseRepoMock struct {
	mock.Mock
}

func (m *FranchiseRepoMock) CreateFranchiseWithQRCode(ctx context.Context, franchise *model.Franchise, qr *model.QRCode) error {
	args := m.Called(ctx, franchise, qr)
	return args.Error(0)
}

func (m *FranchiseRepoMock) UpdateFranchise(ctx context.Context, franchise *model.Franchise) error {
	args := m.Called(ctx, franchise)
	return args.Error(0)
}

func (m *FranchiseRepoMock) FindFranchiseByID(ctx context.Context, id string) (*model.Franchise, error) {
	args := m.Called(ctx, id)
	var r0 *model.Franchise
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Franchise)
	}
	return r0, args.Error(1)
}

func (m *FranchiseRepoMock) FindFranchiseConflict(ctx context.Context, name, email, phone, excludeID string) (*model.Franchise, error) {
	args := m.Called(ctx, name, email, phone, excludeID)
	var r0 *model.Franchise
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Franchise)
	}
	return r0, args.Error(1)
}

func (m *FranchiseRepoMock) ListFranchises(ctx context.Context, filter storage.FranchiseFilter) ([]model.Franchise, int64, error) {
	args := m.Called(ctx, filter)
	var r0 []model.Franchise
	if v := args.Get(0); v != nil {
		r0 = v.([]model.Franchise)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *FranchiseRepoMock) DeactivateFranchise(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ storage.FranchiseRepo = (*FranchiseRepoMock)(nil)

// QRCodeRepoMock mocks the storage.QRCodeRepo interface
type QRCodeRepoMock struct {
	mock.Mock
}

func (m *QRCodeRepoMock) CreateQRCode(ctx context.Context, qr *model.QRCode) error {
	args := m.Called(ctx, qr)
	return args.Error(0)
}

func (m *QRCodeRepoMock) UpdateQRCode(ctx context.Context, qr *model.QRCode) error {
	args := m.Called(ctx, qr)
	return args.Error(0)
}

func (m *QRCodeRepoMock) FindQRCodeByID(ctx context.Context, id string) (*model.QRCode, error) {
	args := m.Called(ctx, id)
	var r0 *model.QRCode
	if v := args.Get(0); v != nil {
		r0 = v.(*model.QRCode)
	}
	return r0, args.Error(1)
}

func (m *QRCodeRepoMock) FindQRCodeByCode(ctx context.Context, code string) (*model.QRCode, error) {
	args := m.Called(ctx, code)
	var r0 *model.QRCode
	if v := args.Get(0); v != nil {
		r0 = v.(*model.QRCode)
	}
	return r0, args.Error(1)
}

func (m *QRCodeRepoMock) FindFirstQRCodeByFranchise(ctx context.Context, franchiseID string) (*model.QRCode, error) {
	args := m.Called(ctx, franchiseID)
	var r0 *model.QRCode
	if v := args.Get(0); v != nil {
		r0 = v.(*model.QRCode)
	}
	return r0, args.Error(1)
}

func (m *QRCodeRepoMock) ListQRCodes(ctx context.Context) ([]model.QRCode, error) {
	args := m.Called(ctx)
	var r0 []model.QRCode
	if v := args.Get(0); v != nil {
		r0 = v.([]model.QRCode)
	}
	return r0, args.Error(1)
}

func (m *QRCodeRepoMock) DeactivateQRCode(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ storage.QRCodeRepo = (*QRCodeRepoMock)(nil)

// PatientRepoMock mocks the storage.PatientRepo interface
type PatientRepoMock struct {
	mock.Mock
}

func (m *PatientRepoMock) FindPatientByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	args := m.Called(ctx, phone)
	var r0 *model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Patient)
	}
	return r0, args.Error(1)
}

func (m *PatientRepoMock) FindPatientByID(ctx context.Context, id string) (*model.Patient, error) {
	args := m.Called(ctx, id)
	var r0 *model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Patient)
	}
	return r0, args.Error(1)
}

func (m *PatientRepoMock) FindPatientDetails(ctx context.Context, id string) (*model.Patient, error) {
	args := m.Called(ctx, id)
	var r0 *model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Patient)
	}
	return r0, args.Error(1)
}

func (m *PatientRepoMock) ProvisionPatient(ctx context.Context, patient *model.Patient) (*storage.ProvisionResult, error) {
	args := m.Called(ctx, patient)
	var r0 *storage.ProvisionResult
	if v := args.Get(0); v != nil {
		r0 = v.(*storage.ProvisionResult)
	}
	return r0, args.Error(1)
}

func (m *PatientRepoMock) UpdatePatientAndCase(ctx context.Context, patientID, caseID string, patientFields map[string]interface{}, description string) error {
	args := m.Called(ctx, patientID, caseID, patientFields, description)
	return args.Error(0)
}

func (m *PatientRepoMock) ListPatients(ctx context.Context, filter storage.PatientFilter) ([]model.Patient, int64, error) {
	args := m.Called(ctx, filter)
	var r0 []model.Patient
	if v := args.Get(0); v != nil {
		r0 = v.([]model.Patient)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

var _ storage.PatientRepo = (*PatientRepoMock)(nil)

// CaseRepoMock mocks the storage.CaseRepo interface
type CaseRepoMock struct {
	mock.Mock
}

func (m *CaseRepoMock) CreateCase(ctx context.Context, c *model.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CaseRepoMock) FindCaseByID(ctx context.Context, id string) (*model.Case, error) {
	args := m.Called(ctx, id)
	var r0 *model.Case
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Case)
	}
	return r0, args.Error(1)
}

func (m *CaseRepoMock) FindFirstCase(ctx context.Context, patientID, franchiseID string) (*model.Case, error) {
	args := m.Called(ctx, patientID, franchiseID)
	var r0 *model.Case
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Case)
	}
	return r0, args.Error(1)
}

func (m *CaseRepoMock) ListCases(ctx context.Context, status string) ([]model.Case, error) {
	args := m.Called(ctx, status)
	var r0 []model.Case
	if v := args.Get(0); v != nil {
		r0 = v.([]model.Case)
	}
	return r0, args.Error(1)
}

func (m *CaseRepoMock) UpdateCaseFields(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

var _ storage.CaseRepo = (*CaseRepoMock)(nil)

// DoctorRepoMock mocks the storage.DoctorRepo interface
type DoctorRepoMock struct {
	mock.Mock
}

func (m *DoctorRepoMock) CreateDoctorWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	args := m.Called(ctx, user, doctor)
	return args.Error(0)
}

func (m *DoctorRepoMock) UpdateDoctorWithUser(ctx context.Context, doctor *model.Doctor, user *model.User) error {
	args := m.Called(ctx, doctor, user)
	return args.Error(0)
}

func (m *DoctorRepoMock) FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	var r0 *model.Doctor
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Doctor)
	}
	return r0, args.Error(1)
}

func (m *DoctorRepoMock) ListDoctors(ctx context.Context, filter storage.DoctorFilter) ([]model.Doctor, int64, error) {
	args := m.Called(ctx, filter)
	var r0 []model.Doctor
	if v := args.Get(0); v != nil {
		r0 = v.([]model.Doctor)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *DoctorRepoMock) DeactivateDoctor(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DoctorRepoMock) DeleteDoctor(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ storage.DoctorRepo = (*DoctorRepoMock)(nil)

// TreatmentPlanRepoMock mocks the storage.TreatmentPlanRepo interface
type TreatmentPlanRepoMock struct {
	mock.Mock
}

func (m *TreatmentPlanRepoMock) CreateTreatmentPlan(ctx context.Context, plan *model.TreatmentPlan, caseStatus model.CaseStatus) error {
	args := m.Called(ctx, plan, caseStatus)
	return args.Error(0)
}

func (m *TreatmentPlanRepoMock) FindTreatmentPlanByID(ctx context.Context, id string) (*model.TreatmentPlan, error) {
	args := m.Called(ctx, id)
	var r0 *model.TreatmentPlan
	if v := args.Get(0); v != nil {
		r0 = v.(*model.TreatmentPlan)
	}
	return r0, args.Error(1)
}

func (m *TreatmentPlanRepoMock) ListTreatmentPlans(ctx context.Context, filter storage.TreatmentPlanFilter) ([]model.TreatmentPlan, int64, error) {
	args := m.Called(ctx, filter)
	var r0 []model.TreatmentPlan
	if v := args.Get(0); v != nil {
		r0 = v.([]model.TreatmentPlan)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *TreatmentPlanRepoMock) UpdateTreatmentPlan(ctx context.Context, plan *model.TreatmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *TreatmentPlanRepoMock) DeleteTreatmentPlan(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ storage.TreatmentPlanRepo = (*TreatmentPlanRepoMock)(nil)

// MessageRepoMock mocks the storage.MessageRepo interface
type MessageRepoMock struct {
	mock.Mock
}

func (m *MessageRepoMock) SaveMessage(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepoMock) MessageExists(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

var _ storage.MessageRepo = (*MessageRepoMock)(nil)

// MediaRepoMock mocks the storage.MediaRepo interface
type MediaRepoMock struct {
	mock.Mock
}

func (m *MediaRepoMock) CreateMedia(ctx context.Context, media *model.Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MediaRepoMock) UpdateMedia(ctx context.Context, media *model.Media) error {
	args := m.Called(ctx, media)
	return args.Error(0)
}

func (m *MediaRepoMock) FindMediaByID(ctx context.Context, id string) (*model.Media, error) {
	args := m.Called(ctx, id)
	var r0 *model.Media
	if v := args.Get(0); v != nil {
		r0 = v.(*model.Media)
	}
	return r0, args.Error(1)
}

func (m *MediaRepoMock) ListMedia(ctx context.Context, ownerID string) ([]model.Media, error) {
	args := m.Called(ctx, ownerID)
	var r0 []model.Media
	if v := args.Get(0); v != nil {
		r0 = v.([]model.Media)
	}
	return r0, args.Error(1)
}

func (m *MediaRepoMock) DeleteMedia(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ storage.MediaRepo = (*MediaRepoMock)(nil)

// DashboardRepoMock mocks the storage.DashboardRepo interface
type DashboardRepoMock struct {
	mock.Mock
}

func (m *DashboardRepoMock) LoadDashboardFacts(ctx context.Context, windowStart, yearStart time.Time) (*model.DashboardFacts, error) {
	args := m.Called(ctx, windowStart, yearStart)
	var r0 *model.DashboardFacts
	if v := args.Get(0); v != nil {
		r0 = v.(*model.DashboardFacts)
	}
	return r0, args.Error(1)
}

var _ storage.DashboardRepo = (*DashboardRepoMock)(nil)
