package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/jetstream"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

type CreateCaseInput struct {
	QRCodeID    string  `json:"qrCodeId" validate:"required,uuid"`
	Description string  `json:"description" validate:"max=2000"`
	PatientID   *string `json:"patientId" validate:"omitempty,uuid"`
}

// UpdateCaseInput leaves nil fields untouched. FollowUpDate is DD-MM-YYYY.
type UpdateCaseInput struct {
	Description    *string  `json:"description" validate:"omitempty,max=2000"`
	DoctorNotes    *string  `json:"doctorNotes" validate:"omitempty,max=4000"`
	FollowUpDate   *string  `json:"followUpDate" validate:"omitempty,daydate"`
	MedicationCost *float64 `json:"medicationCost" validate:"omitempty,gte=0"`
}

// CaseNotifyConfig names who hears about case progress.
type CaseNotifyConfig struct {
	SupportTeamPhone string
}

// CaseService drives a case through its lifecycle.
type CaseService struct {
	cases    storage.CaseRepo
	qrcodes  storage.QRCodeRepo
	doctors  storage.DoctorRepo
	notifier INotificationWorker
	events   jetstream.EventPublisher
	notify   CaseNotifyConfig
}

func NewCaseService(
	cases storage.CaseRepo,
	qrcodes storage.QRCodeRepo,
	doctors storage.DoctorRepo,
	notifier INotificationWorker,
	events jetstream.EventPublisher,
	notify CaseNotifyConfig,
) *CaseService {
	if events == nil {
		events = jetstream.NopPublisher{}
	}
	return &CaseService{
		cases:    cases,
		qrcodes:  qrcodes,
		doctors:  doctors,
		notifier: notifier,
		events:   events,
		notify:   notify,
	}
}

// Create opens a NEW case under the QR code's franchise and tells support.
func (s *CaseService) Create(ctx context.Context, in CreateCaseInput) (*model.Case, error) {
	in.PatientID = trimPtr(in.PatientID)
	if in.PatientID != nil && *in.PatientID == "" {
		in.PatientID = nil
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	qr, err := s.qrcodes.FindQRCodeByID(ctx, in.QRCodeID)
	if err != nil {
		return nil, err
	}

	c := &model.Case{
		QRCodeID:    qr.ID,
		FranchiseID: qr.FranchiseID,
		PatientID:   in.PatientID,
		Description: strings.TrimSpace(in.Description),
		Status:      model.CaseStatusNew,
	}
	if err := s.cases.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	franchiseName := qr.FranchiseID
	if qr.Franchise != nil && qr.Franchise.Name != "" {
		franchiseName = qr.Franchise.Name
	}
	submitNotification(ctx, s.notifier, NotificationTask{
		Kind: NotificationText,
		To:   s.notify.SupportTeamPhone,
		Text: fmt.Sprintf("New case created at %s. Case ID: %s", franchiseName, c.ID),
	})
	s.events.Publish(ctx, model.SubjectCaseCreated, model.CaseCreatedEvent{
		CaseID:      c.ID,
		FranchiseID: c.FranchiseID,
		QRCodeID:    c.QRCodeID,
		PatientID:   c.PatientID,
		Source:      "api",
	})
	return c, nil
}

// List returns cases newest first. An empty status lists every case.
func (s *CaseService) List(ctx context.Context, status string) ([]model.Case, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !knownCaseStatus(model.CaseStatus(status)) {
		return nil, apperrors.NewFieldError(fmt.Sprintf("status %q is not a case status", status))
	}
	cases, err := s.cases.ListCases(ctx, status)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []model.Case{}
	}
	return cases, nil
}

func (s *CaseService) Get(ctx context.Context, id string) (*model.Case, error) {
	return s.cases.FindCaseByID(ctx, id)
}

func (s *CaseService) Update(ctx context.Context, id string, in UpdateCaseInput) (*model.Case, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.DoctorNotes != nil {
		fields["doctor_notes"] = strings.TrimSpace(*in.DoctorNotes)
	}
	if in.MedicationCost != nil {
		fields["medication_cost"] = *in.MedicationCost
	}
	if in.FollowUpDate != nil {
		followUp, err := parseDayDateField("followUpDate", *in.FollowUpDate)
		if err != nil {
			return nil, err
		}
		fields["follow_up_date"] = followUp
	}
	if len(fields) > 0 {
		if err := s.cases.UpdateCaseFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.cases.FindCaseByID(ctx, id)
}

// AssignDoctor moves the case to DOCTOR_ASSIGNED. The doctor must be active.
func (s *CaseService) AssignDoctor(ctx context.Context, id, doctorID string) (*model.Case, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, apperrors.NewFieldError("doctorId is required")
	}
	doctor, err := s.doctors.FindDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsActive {
		return nil, fmt.Errorf("%w: doctor %s is inactive", apperrors.ErrBadRequest, doctorID)
	}

	return s.transition(ctx, id, model.CaseStatusDoctorAssigned, func(c *model.Case) map[string]interface{} {
		c.DoctorID = &doctor.ID
		c.Doctor = doctor
		return map[string]interface{}{"doctor_id": doctor.ID}
	})
}

// UpdateTreatmentPlan records the quoted cost and tells support.
func (s *CaseService) UpdateTreatmentPlan(ctx context.Context, id string, cost float64) (*model.Case, error) {
	if cost < 0 {
		return nil, apperrors.NewFieldError("medicationCost must be at least 0")
	}
	c, err := s.transition(ctx, id, model.CaseStatusTreatmentPlanned, func(c *model.Case) map[string]interface{} {
		c.MedicationCost = cost
		return map[string]interface{}{"medication_cost": cost}
	})
	if err != nil {
		return nil, err
	}

	submitNotification(ctx, s.notifier, NotificationTask{
		Kind: NotificationText,
		To:   s.notify.SupportTeamPhone,
		Text: fmt.Sprintf("Treatment plan ready for case %s. Cost: %s", c.ID, formatCost(cost)),
	})
	return c, nil
}

// ApproveCost moves a planned case to COST_APPROVED and texts the patient.
func (s *CaseService) ApproveCost(ctx context.Context, id string) (*model.Case, error) {
	c, err := s.transition(ctx, id, model.CaseStatusCostApproved, nil)
	if err != nil {
		return nil, err
	}

	if c.Patient != nil {
		submitNotification(ctx, s.notifier, NotificationTask{
			Kind: NotificationText,
			To:   c.Patient.Phone,
			Text: fmt.Sprintf("Your treatment plan is ready. Total cost: %s. Please contact us for more details.", formatCost(c.MedicationCost)),
		})
	}
	return c, nil
}

func (s *CaseService) Complete(ctx context.Context, id string) (*model.Case, error) {
	return s.transition(ctx, id, model.CaseStatusCompleted, nil)
}

// transition loads the case, checks the move to next is legal and writes
// the status along with whatever change returns.
func (s *CaseService) transition(ctx context.Context, id string, next model.CaseStatus, change func(*model.Case) map[string]interface{}) (*model.Case, error) {
	c, err := s.cases.FindCaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: case %s cannot move from %s to %s", apperrors.ErrConflict, id, c.Status, next)
	}

	fields := map[string]interface{}{}
	if change != nil {
		fields = change(c)
	}
	fields["status"] = next
	if err := s.cases.UpdateCaseFields(ctx, id, fields); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Case status changed",
		zap.String("case_id", id),
		zap.String("from", string(c.Status)),
		zap.String("to", string(next)),
	)
	c.Status = next
	return c, nil
}

func knownCaseStatus(s model.CaseStatus) bool {
	switch s {
	case model.CaseStatusNew, model.CaseStatusInReview, model.CaseStatusDoctorAssigned,
		model.CaseStatusTreatmentPlanned, model.CaseStatusCostApproved,
		model.CaseStatusCompleted, model.CaseStatusDeactivated:
		return true
	}
	return false
}

func formatCost(cost float64) string {
	return strconv.FormatFloat(cost, 'f', -1, 64)
}

func parseDayDateField(field, value string) (time.Time, error) {
	t, err := utils.ParseDayDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewFieldError(fmt.Sprintf("%s %s", field, err.Error()))
	}
	return t, nil
}
