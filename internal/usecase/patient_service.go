package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/jetstream"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// PatientUpdatedTemplate is sent after a patient completes their details.
const PatientUpdatedTemplate = "doctor_1"

type PatientListFilter struct {
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Fullname       string `json:"fullname"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AgeMin         int    `json:"ageMin" validate:"gte=0"`
	AgeMax         int    `json:"ageMax" validate:"gte=0"`
	FranchiseID    string `json:"franchiseId" validate:"omitempty,uuid"`
	CreatedAtStart string `json:"createdAtStart" validate:"omitempty,daydate"`
	CreatedAtEnd   string `json:"createdAtEnd" validate:"omitempty,daydate"`
}

type PatientListSort struct {
	Name  string `json:"name" validate:"omitempty,oneof=firstname lastname fullname createdAt updatedAt age"`
	Order string `json:"order" validate:"omitempty,oneof=asc desc"`
}

// PatientListInput is the body of POST /patients/list.
type PatientListInput struct {
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
	Sort   PatientListSort   `json:"sort"`
	Filter PatientListFilter `json:"filter"`
}

type CreatePatientInput struct {
	Firstname   string `json:"firstname" validate:"required,max=64"`
	Lastname    string `json:"lastname" validate:"max=64"`
	Phone       string `json:"phone" validate:"required,phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Age         int    `json:"age" validate:"gte=0,lte=150"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female non_binary other undisclosed"`
	FranchiseID string `json:"franchiseId" validate:"required,uuid"`
}

// UpdatePatientInput is the patient-facing form that completes a
// provisioned record. Nil fields are left untouched.
type UpdatePatientInput struct {
	CaseID      string  `json:"caseId" validate:"required,uuid"`
	Firstname   *string `json:"firstname" validate:"omitempty,max=64"`
	Lastname    *string `json:"lastname" validate:"omitempty,max=64"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female non_binary other undisclosed"`
	Age         *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Description string  `json:"description" validate:"max=2000"`
}

type PatientTreatmentPlanInput struct {
	DoctorID      string  `json:"doctorId" validate:"required,uuid"`
	Summary       string  `json:"summary" validate:"required,min=5,max=500"`
	Medication    string  `json:"medication" validate:"max=500"`
	EstimatedCost float64 `json:"estimatedCost" validate:"gt=0"`
	Status        string  `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
}

// PatientService covers staff and patient operations on patient records.
type PatientService struct {
	patients   storage.PatientRepo
	franchises storage.FranchiseRepo
	cases      storage.CaseRepo
	plans      storage.TreatmentPlanRepo
	caseFlow   *CaseService
	notifier   INotificationWorker
	events     jetstream.EventPublisher
}

func NewPatientService(
	patients storage.PatientRepo,
	franchises storage.FranchiseRepo,
	cases storage.CaseRepo,
	plans storage.TreatmentPlanRepo,
	caseFlow *CaseService,
	notifier INotificationWorker,
	events jetstream.EventPublisher,
) *PatientService {
	if events == nil {
		events = jetstream.NopPublisher{}
	}
	return &PatientService{
		patients:   patients,
		franchises: franchises,
		cases:      cases,
		plans:      plans,
		caseFlow:   caseFlow,
		notifier:   notifier,
		events:     events,
	}
}

// List pages through patients. Ages <= 0 are treated as unset.
func (s *PatientService) List(ctx context.Context, in PatientListInput) (*ListResult[model.Patient], error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	f := in.Filter
	if f.AgeMin > 0 && f.AgeMax > 0 && f.AgeMin > f.AgeMax {
		return nil, fmt.Errorf("%w: ageMin must not exceed ageMax", apperrors.ErrBadRequest)
	}

	filter := storage.PatientFilter{
		Firstname:   f.Firstname,
		Lastname:    f.Lastname,
		Fullname:    f.Fullname,
		Email:       f.Email,
		Phone:       f.Phone,
		FranchiseID: f.FranchiseID,
		SortBy:      in.Sort.Name,
		SortOrder:   in.Sort.Order,
	}
	if f.AgeMin > 0 {
		filter.AgeMin = &f.AgeMin
	}
	if f.AgeMax > 0 {
		filter.AgeMax = &f.AgeMax
	}
	if f.CreatedAtStart != "" {
		start, err := parseDayDateField("createdAtStart", f.CreatedAtStart)
		if err != nil {
			return nil, err
		}
		filter.CreatedFrom = &start
	}
	if f.CreatedAtEnd != "" {
		end, err := parseDayDateField("createdAtEnd", f.CreatedAtEnd)
		if err != nil {
			return nil, err
		}
		end = utils.EndOfDay(end)
		filter.CreatedTo = &end
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return nil, fmt.Errorf("%w: createdAtStart must not be after createdAtEnd", apperrors.ErrBadRequest)
	}

	page, limit := normalizePage(in.Page, in.Limit)
	filter.Page = pageWindow(page, limit)
	patients, total, err := s.patients.ListPatients(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newListResult(patients, total, page, limit), nil
}

// Create registers a patient by hand. Like the WhatsApp path it opens a
// case under the franchise's first QR code when there is one.
func (s *PatientService) Create(ctx context.Context, in CreatePatientInput) (*model.Patient, error) {
	in.Firstname = strings.TrimSpace(in.Firstname)
	in.Lastname = strings.TrimSpace(in.Lastname)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	franchise, err := s.franchises.FindFranchiseByID(ctx, in.FranchiseID)
	if err != nil {
		return nil, err
	}
	existing, err := s.patients.FindPatientByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicate("a patient with this phone")
	}

	result, err := s.patients.ProvisionPatient(ctx, &model.Patient{
		Firstname:   in.Firstname,
		Lastname:    in.Lastname,
		Fullname:    model.ComposeFullname(in.Firstname, in.Lastname),
		Phone:       in.Phone,
		Email:       in.Email,
		Age:         in.Age,
		Gender:      in.Gender,
		FranchiseID: franchise.ID,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}
	if !result.Created {
		return nil, duplicate("a patient with this phone")
	}

	patient := result.Patient
	var caseID *string
	if result.Case != nil {
		caseID = &result.Case.ID
		patient.Cases = []model.Case{*result.Case}
	}
	s.events.Publish(ctx, model.SubjectPatientProvisioned, model.PatientProvisionedEvent{
		PatientID:   patient.ID,
		FranchiseID: franchise.ID,
		CaseID:      caseID,
		Phone:       patient.Phone,
	})
	if result.Case != nil {
		s.events.Publish(ctx, model.SubjectCaseCreated, model.CaseCreatedEvent{
			CaseID:      result.Case.ID,
			FranchiseID: result.Case.FranchiseID,
			QRCodeID:    result.Case.QRCodeID,
			PatientID:   result.Case.PatientID,
			Source:      "api",
		})
	}
	return patient, nil
}

// Get returns the patient with cases, plans, payments, messages and history.
func (s *PatientService) Get(ctx context.Context, id string) (*model.Patient, error) {
	return s.patients.FindPatientDetails(ctx, id)
}

// UpdateWithCase writes the patient's details and the case description in
// one transaction, then queues the follow-up template.
func (s *PatientService) UpdateWithCase(ctx context.Context, patientID string, in UpdatePatientInput) (*model.Patient, error) {
	in.Firstname, in.Lastname = trimPtr(in.Firstname), trimPtr(in.Lastname)
	if in.Email != nil {
		lower := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &lower
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	patient, err := s.patients.FindPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Firstname != nil {
		patient.Firstname = *in.Firstname
		fields["firstname"] = patient.Firstname
	}
	if in.Lastname != nil {
		patient.Lastname = *in.Lastname
		fields["lastname"] = patient.Lastname
	}
	if in.Firstname != nil || in.Lastname != nil {
		patient.Fullname = model.ComposeFullname(patient.Firstname, patient.Lastname)
		fields["fullname"] = patient.Fullname
	}
	if in.Gender != nil {
		patient.Gender = *in.Gender
		fields["gender"] = patient.Gender
	}
	if in.Age != nil {
		patient.Age = *in.Age
		fields["age"] = patient.Age
	}
	if in.Email != nil {
		patient.Email = *in.Email
		fields["email"] = patient.Email
	}

	description := strings.TrimSpace(in.Description)
	if err := s.patients.UpdatePatientAndCase(ctx, patientID, in.CaseID, fields, description); err != nil {
		return nil, err
	}

	submitNotification(ctx, s.notifier, NotificationTask{
		Kind:         NotificationTemplate,
		To:           patient.Phone,
		TemplateName: PatientUpdatedTemplate,
	})
	logger.FromContext(ctx).Info("Patient details updated",
		zap.String("patient_id", patientID),
		zap.String("case_id", in.CaseID),
	)
	return patient, nil
}

// AssignDoctor assigns a doctor to one of the patient's cases.
func (s *PatientService) AssignDoctor(ctx context.Context, patientID, caseID, doctorID string) (*model.Case, error) {
	if _, err := s.patientCase(ctx, patientID, caseID); err != nil {
		return nil, err
	}
	return s.caseFlow.AssignDoctor(ctx, caseID, doctorID)
}

// AddTreatmentPlan attaches a plan to the patient's case and moves the case
// to TREATMENT_PLANNED in the same transaction.
func (s *PatientService) AddTreatmentPlan(ctx context.Context, patientID, caseID string, in PatientTreatmentPlanInput) (*model.TreatmentPlan, error) {
	in.Summary = strings.TrimSpace(in.Summary)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	c, err := s.patientCase(ctx, patientID, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransitionTo(model.CaseStatusTreatmentPlanned) {
		return nil, fmt.Errorf("%w: case %s cannot move from %s to %s",
			apperrors.ErrConflict, caseID, c.Status, model.CaseStatusTreatmentPlanned)
	}

	plan := &model.TreatmentPlan{
		CaseID:        c.ID,
		DoctorID:      in.DoctorID,
		Summary:       in.Summary,
		Medication:    strings.TrimSpace(in.Medication),
		EstimatedCost: in.EstimatedCost,
		Status:        in.Status,
	}
	if plan.Status == "" {
		plan.Status = model.PlanStatusPlanned
	}
	if err := s.plans.CreateTreatmentPlan(ctx, plan, model.CaseStatusTreatmentPlanned); err != nil {
		return nil, err
	}
	return plan, nil
}

// patientCase loads caseID and checks it belongs to patientID.
func (s *PatientService) patientCase(ctx context.Context, patientID, caseID string) (*model.Case, error) {
	c, err := s.cases.FindCaseByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.PatientID == nil || *c.PatientID != patientID {
		return nil, fmt.Errorf("%w: case %s does not belong to patient %s", apperrors.ErrNotFound, caseID, patientID)
	}
	return c, nil
}

