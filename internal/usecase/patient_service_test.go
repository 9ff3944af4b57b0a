package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	jsmock "gitlab.com/timkado/api/clinic-case-service/internal/jetstream/mock"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	storagemock "gitlab.com/timkado/api/clinic-case-service/internal/storage/mock"
)

const testPatientID = "5d1c2b3a-0000-4000-8000-000000000001"

type patientFixture struct {
	service    *PatientService
	patients   *storagemock.PatientRepoMock
	franchises *storagemock.FranchiseRepoMock
	cases      *storagemock.CaseRepoMock
	plans      *storagemock.TreatmentPlanRepoMock
	doctors    *storagemock.DoctorRepoMock
	notifier   *MockNotificationWorker
	events     *jsmock.PublisherMock
}

func newPatientFixture(t *testing.T) *patientFixture {
	f := &patientFixture{
		patients:   new(storagemock.PatientRepoMock),
		franchises: new(storagemock.FranchiseRepoMock),
		cases:      new(storagemock.CaseRepoMock),
		plans:      new(storagemock.TreatmentPlanRepoMock),
		doctors:    new(storagemock.DoctorRepoMock),
		notifier:   new(MockNotificationWorker),
		events:     new(jsmock.PublisherMock),
	}
	caseFlow := NewCaseService(f.cases, new(storagemock.QRCodeRepoMock), f.doctors, f.notifier, f.events, CaseNotifyConfig{})
	f.service = NewPatientService(f.patients, f.franchises, f.cases, f.plans, caseFlow, f.notifier, f.events)
	t.Cleanup(func() {
		f.patients.AssertExpectations(t)
		f.franchises.AssertExpectations(t)
		f.cases.AssertExpectations(t)
		f.plans.AssertExpectations(t)
		f.doctors.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})
	return f
}

func TestPatientService_ListBuildsFilter(t *testing.T) {
	f := newPatientFixture(t)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC)
	ageMin, ageMax := 18, 60
	f.patients.On("ListPatients", mock.Anything, storage.PatientFilter{
		Fullname:    "rao",
		AgeMin:      &ageMin,
		AgeMax:      &ageMax,
		CreatedFrom: &start,
		CreatedTo:   &end,
		SortBy:      "age",
		SortOrder:   "asc",
		Page:        storage.Page{Offset: 25, Limit: 25},
	}).Return([]model.Patient{*model.NewPatient()}, int64(26), nil)

	res, err := f.service.List(context.Background(), PatientListInput{
		Page:  2,
		Limit: 25,
		Sort:  PatientListSort{Name: "age", Order: "asc"},
		Filter: PatientListFilter{
			Fullname:       "rao",
			AgeMin:         18,
			AgeMax:         60,
			CreatedAtStart: "01-01-2025",
			CreatedAtEnd:   "31/01/2025",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, int64(26), res.Total)
}

func TestPatientService_ListRejectsInvertedRanges(t *testing.T) {
	f := newPatientFixture(t)

	_, err := f.service.List(context.Background(), PatientListInput{Filter: PatientListFilter{AgeMin: 40, AgeMax: 20}})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = f.service.List(context.Background(), PatientListInput{Filter: PatientListFilter{
		CreatedAtStart: "10-02-2025",
		CreatedAtEnd:   "09-02-2025",
	}})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = f.service.List(context.Background(), PatientListInput{Sort: PatientListSort{Name: "password"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPatientService_ListIgnoresZeroAges(t *testing.T) {
	f := newPatientFixture(t)
	f.patients.On("ListPatients", mock.Anything, mock.MatchedBy(func(filter storage.PatientFilter) bool {
		return filter.AgeMin == nil && filter.AgeMax == nil && filter.Page == storage.Page{Offset: 0, Limit: 10}
	})).Return(nil, int64(0), nil)

	res, err := f.service.List(context.Background(), PatientListInput{})
	require.NoError(t, err)
	assert.NotNil(t, res.Result)
	assert.Equal(t, 0, res.TotalPages)
}

func TestPatientService_CreateRejectsKnownPhone(t *testing.T) {
	f := newPatientFixture(t)
	f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(&model.Franchise{ID: testFranchiseID}, nil)
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(&model.Patient{ID: testPatientID}, nil)

	_, err := f.service.Create(context.Background(), CreatePatientInput{
		Firstname:   "Asha",
		Phone:       testPhone,
		FranchiseID: testFranchiseID,
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestPatientService_CreateOpensCase(t *testing.T) {
	f := newPatientFixture(t)
	f.franchises.On("FindFranchiseByID", mock.Anything, testFranchiseID).Return(&model.Franchise{ID: testFranchiseID}, nil)
	f.patients.On("FindPatientByPhone", mock.Anything, testPhone).Return(nil, nil)

	patientID := testPatientID
	result := &storage.ProvisionResult{
		Case:    &model.Case{ID: "case-1", QRCodeID: "qr-1", FranchiseID: testFranchiseID, PatientID: &patientID},
		Created: true,
	}
	f.patients.On("ProvisionPatient", mock.Anything, mock.MatchedBy(func(p *model.Patient) bool {
		return p.Fullname == "Asha Rao" && p.Email == "asha@example.com"
	})).Run(func(args mock.Arguments) {
		p := args.Get(1).(*model.Patient)
		p.ID = testPatientID
		result.Patient = p
	}).Return(result, nil)
	f.events.On("Publish", mock.Anything, model.SubjectPatientProvisioned, mock.Anything).Return()
	f.events.On("Publish", mock.Anything, model.SubjectCaseCreated, mock.Anything).Return()

	patient, err := f.service.Create(context.Background(), CreatePatientInput{
		Firstname:   " Asha ",
		Lastname:    "Rao",
		Phone:       testPhone,
		Email:       "Asha@Example.com",
		FranchiseID: testFranchiseID,
	})
	require.NoError(t, err)
	assert.Equal(t, testPatientID, patient.ID)
	require.Len(t, patient.Cases, 1)
	assert.Equal(t, "case-1", patient.Cases[0].ID)
}

func TestPatientService_UpdateWithCaseSendsTemplate(t *testing.T) {
	f := newPatientFixture(t)
	caseID := "9b8a7c6d-0000-4000-8000-000000000002"
	patient := &model.Patient{ID: testPatientID, Firstname: "Unknown", Fullname: "Unknown", Phone: testPhone}

	first, age := "Asha", 34
	f.patients.On("FindPatientByID", mock.Anything, testPatientID).Return(patient, nil)
	f.patients.On("UpdatePatientAndCase", mock.Anything, testPatientID, caseID, map[string]interface{}{
		"firstname": "Asha",
		"fullname":  "Asha",
		"age":       34,
	}, "knee pain").Return(nil)
	f.notifier.On("Submit", mock.MatchedBy(func(task NotificationTask) bool {
		return task.Kind == NotificationTemplate && task.To == testPhone && task.TemplateName == "doctor_1"
	})).Return(nil)

	updated, err := f.service.UpdateWithCase(context.Background(), testPatientID, UpdatePatientInput{
		CaseID:      caseID,
		Firstname:   &first,
		Age:         &age,
		Description: " knee pain ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", updated.Fullname)
	assert.Equal(t, 34, updated.Age)
}

func TestPatientService_UpdateWithCaseSubmitFailureIsSwallowed(t *testing.T) {
	f := newPatientFixture(t)
	caseID := "9b8a7c6d-0000-4000-8000-000000000002"

	f.patients.On("FindPatientByID", mock.Anything, testPatientID).Return(&model.Patient{ID: testPatientID, Phone: testPhone}, nil)
	f.patients.On("UpdatePatientAndCase", mock.Anything, testPatientID, caseID, map[string]interface{}{}, "").Return(nil)
	f.notifier.On("Submit", mock.Anything).Return(ErrPoolOverload)

	_, err := f.service.UpdateWithCase(context.Background(), testPatientID, UpdatePatientInput{CaseID: caseID})
	assert.NoError(t, err)
}

func TestPatientService_AssignDoctorChecksOwnership(t *testing.T) {
	f := newPatientFixture(t)
	other := "someone-else"
	c := &model.Case{ID: "case-1", PatientID: &other, Status: model.CaseStatusNew}
	f.cases.On("FindCaseByID", mock.Anything, "case-1").Return(c, nil)

	_, err := f.service.AssignDoctor(context.Background(), testPatientID, "case-1", "doctor-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPatientService_AddTreatmentPlan(t *testing.T) {
	f := newPatientFixture(t)
	patientID := testPatientID
	c := &model.Case{ID: "case-1", PatientID: &patientID, Status: model.CaseStatusDoctorAssigned}
	doctorID := "6e5d4c3b-0000-4000-8000-000000000003"

	f.cases.On("FindCaseByID", mock.Anything, "case-1").Return(c, nil)
	f.plans.On("CreateTreatmentPlan", mock.Anything, mock.MatchedBy(func(p *model.TreatmentPlan) bool {
		return p.CaseID == "case-1" && p.DoctorID == doctorID && p.Status == model.PlanStatusPlanned
	}), model.CaseStatusTreatmentPlanned).Return(nil)

	plan, err := f.service.AddTreatmentPlan(context.Background(), testPatientID, "case-1", PatientTreatmentPlanInput{
		DoctorID:      doctorID,
		Summary:       "Root canal and crown",
		EstimatedCost: 8000,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusPlanned, plan.Status)
}

func TestPatientService_AddTreatmentPlanRequiresDoctor(t *testing.T) {
	f := newPatientFixture(t)

	_, err := f.service.AddTreatmentPlan(context.Background(), testPatientID, "case-1", PatientTreatmentPlanInput{
		Summary:       "Root canal and crown",
		EstimatedCost: 8000,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPatientService_AddTreatmentPlanOnClosedCase(t *testing.T) {
	f := newPatientFixture(t)
	patientID := testPatientID
	c := &model.Case{ID: "case-1", PatientID: &patientID, Status: model.CaseStatusCompleted}
	f.cases.On("FindCaseByID", mock.Anything, "case-1").Return(c, nil)

	_, err := f.service.AddTreatmentPlan(context.Background(), testPatientID, "case-1", PatientTreatmentPlanInput{
		DoctorID:      "6e5d4c3b-0000-4000-8000-000000000003",
		Summary:       "Root canal and crown",
		EstimatedCost: 8000,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
