package storage

import (
	"context"
	"time"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
)

// Page is an offset window. Limit <= 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// UserFilter narrows ListUsers. Empty fields are ignored.
type UserFilter struct {
	Username string
	Email    string
	Role     string
	Status   string
	Page     Page
}

// FranchiseFilter narrows ListFranchises. Only active franchises are listed.
type FranchiseFilter struct {
	Name      string
	City      string
	State     string
	SortBy    string
	SortOrder string
	Page      Page
}

// PatientFilter narrows ListPatients. Text fields are OR'ed together as
// case-insensitive contains; the remaining fields are AND'ed.
type PatientFilter struct {
	Firstname   string
	Lastname    string
	Fullname    string
	Email       string
	Phone       string
	AgeMin      *int
	AgeMax      *int
	FranchiseID string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string
	SortOrder   string
	Page        Page
}

type DoctorFilter struct {
	Specialty string
	Page      Page
}

type TreatmentPlanFilter struct {
	CaseID   string
	DoctorID string
	Status   string
	Page     Page
}

// ProvisionResult reports what ProvisionPatient did. Created is false when a
// patient with the same phone already existed; Case is then nil.
type ProvisionResult struct {
	Patient *model.Patient
	Case    *model.Case
	Created bool
}

// UserRepo defines user storage operations
type UserRepo interface {
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	// FindUserConflict returns a live user other than excludeID sharing any
	// of the non-empty username, email or phone, or nil.
	FindUserConflict(ctx context.Context, username, email, phone, excludeID string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	SoftDeleteUser(ctx context.Context, id string) error
}

// TokenRepo defines refresh token storage operations
type TokenRepo interface {
	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteRefreshTokensByUser(ctx context.Context, userID string) error
}

// FranchiseRepo defines franchise and QR code storage operations
type FranchiseRepo interface {
	CreateFranchiseWithQRCode(ctx context.Context, franchise *model.Franchise, qr *model.QRCode) error
	UpdateFranchise(ctx context.Context, franchise *model.Franchise) error
	FindFranchiseByID(ctx context.Context, id string) (*model.Franchise, error)
	FindFranchiseConflict(ctx context.Context, name, email, phone, excludeID string) (*model.Franchise, error)
	ListFranchises(ctx context.Context, filter FranchiseFilter) ([]model.Franchise, int64, error)
	DeactivateFranchise(ctx context.Context, id string) error
}

type QRCodeRepo interface {
	CreateQRCode(ctx context.Context, qr *model.QRCode) error
	UpdateQRCode(ctx context.Context, qr *model.QRCode) error
	FindQRCodeByID(ctx context.Context, id string) (*model.QRCode, error)
	FindQRCodeByCode(ctx context.Context, code string) (*model.QRCode, error)
	// FindFirstQRCodeByFranchise returns nil, nil when the franchise has none.
	FindFirstQRCodeByFranchise(ctx context.Context, franchiseID string) (*model.QRCode, error)
	ListQRCodes(ctx context.Context) ([]model.QRCode, error)
	DeactivateQRCode(ctx context.Context, id string) error
}

// PatientRepo defines patient storage operations
type PatientRepo interface {
	// FindPatientByPhone returns nil, nil when no patient has the phone.
	FindPatientByPhone(ctx context.Context, phone string) (*model.Patient, error)
	FindPatientByID(ctx context.Context, id string) (*model.Patient, error)
	FindPatientDetails(ctx context.Context, id string) (*model.Patient, error)
	// ProvisionPatient inserts the patient unless the phone is taken and,
	// for a new patient, opens a NEW case under the franchise's first QR
	// code. Both happen in one transaction.
	ProvisionPatient(ctx context.Context, patient *model.Patient) (*ProvisionResult, error)
	UpdatePatientAndCase(ctx context.Context, patientID, caseID string, patientFields map[string]interface{}, description string) error
	ListPatients(ctx context.Context, filter PatientFilter) ([]model.Patient, int64, error)
}

// CaseRepo defines case storage operations
type CaseRepo interface {
	CreateCase(ctx context.Context, c *model.Case) error
	FindCaseByID(ctx context.Context, id string) (*model.Case, error)
	// FindFirstCase returns nil, nil when the patient has no case at the franchise.
	FindFirstCase(ctx context.Context, patientID, franchiseID string) (*model.Case, error)
	ListCases(ctx context.Context, status string) ([]model.Case, error)
	UpdateCaseFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type DoctorRepo interface {
	CreateDoctorWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error
	UpdateDoctorWithUser(ctx context.Context, doctor *model.Doctor, user *model.User) error
	FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error)
	ListDoctors(ctx context.Context, filter DoctorFilter) ([]model.Doctor, int64, error)
	DeactivateDoctor(ctx context.Context, id string) error
	DeleteDoctor(ctx context.Context, id string) error
}

type TreatmentPlanRepo interface {
	// CreateTreatmentPlan inserts the plan and, when caseStatus is set,
	// moves the case to it in the same transaction.
	CreateTreatmentPlan(ctx context.Context, plan *model.TreatmentPlan, caseStatus model.CaseStatus) error
	FindTreatmentPlanByID(ctx context.Context, id string) (*model.TreatmentPlan, error)
	ListTreatmentPlans(ctx context.Context, filter TreatmentPlanFilter) ([]model.TreatmentPlan, int64, error)
	UpdateTreatmentPlan(ctx context.Context, plan *model.TreatmentPlan) error
	DeleteTreatmentPlan(ctx context.Context, id string) error
}

// MessageRepo defines message storage operations
type MessageRepo interface {
	SaveMessage(ctx context.Context, message *model.Message) error
	MessageExists(ctx context.Context, messageID string) (bool, error)
}

type MediaRepo interface {
	CreateMedia(ctx context.Context, media *model.Media) error
	UpdateMedia(ctx context.Context, media *model.Media) error
	FindMediaByID(ctx context.Context, id string) (*model.Media, error)
	// ListMedia lists media owned by ownerID, or all media when ownerID is empty.
	ListMedia(ctx context.Context, ownerID string) ([]model.Media, error)
	DeleteMedia(ctx context.Context, id string) error
}

// DashboardRepo loads the facts the overview is computed from. Cases,
// franchises, patients and first plans are loaded from windowStart and
// completed plans from yearStart. Case countries cover every case so the
// country ranking is all-time.
type DashboardRepo interface {
	LoadDashboardFacts(ctx context.Context, windowStart, yearStart time.Time) (*model.DashboardFacts, error)
}
