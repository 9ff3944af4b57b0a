package usecase

import (
	"context"
	"strings"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
)

type CreateTreatmentPlanInput struct {
	CaseID        string  `json:"caseId" validate:"required,uuid"`
	DoctorID      string  `json:"doctorId" validate:"required,uuid"`
	Summary       string  `json:"summary" validate:"required,min=5,max=500"`
	Medication    string  `json:"medication" validate:"max=500"`
	EstimatedCost float64 `json:"estimatedCost" validate:"gt=0"`
	Status        string  `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
}

type TreatmentPlanListInput struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	CaseID   string `json:"caseId" validate:"omitempty,uuid"`
	DoctorID string `json:"doctorId" validate:"omitempty,uuid"`
	Status   string `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
}

// UpdateTreatmentPlanInput leaves nil fields untouched.
type UpdateTreatmentPlanInput struct {
	Summary       *string  `json:"summary" validate:"omitempty,min=5,max=500"`
	Medication    *string  `json:"medication" validate:"omitempty,max=500"`
	EstimatedCost *float64 `json:"estimatedCost" validate:"omitempty,gt=0"`
	Status        *string  `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED CANCELLED"`
}

type TreatmentPlanService struct {
	plans storage.TreatmentPlanRepo
	cases storage.CaseRepo
}

func NewTreatmentPlanService(plans storage.TreatmentPlanRepo, cases storage.CaseRepo) *TreatmentPlanService {
	return &TreatmentPlanService{plans: plans, cases: cases}
}

// Create attaches a plan to an existing case. The case status is not moved.
func (s *TreatmentPlanService) Create(ctx context.Context, in CreateTreatmentPlanInput) (*model.TreatmentPlan, error) {
	in.Summary = strings.TrimSpace(in.Summary)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.cases.FindCaseByID(ctx, in.CaseID); err != nil {
		return nil, err
	}

	plan := &model.TreatmentPlan{
		CaseID:        in.CaseID,
		DoctorID:      in.DoctorID,
		Summary:       in.Summary,
		Medication:    strings.TrimSpace(in.Medication),
		EstimatedCost: in.EstimatedCost,
		Status:        in.Status,
	}
	if plan.Status == "" {
		plan.Status = model.PlanStatusPlanned
	}
	if err := s.plans.CreateTreatmentPlan(ctx, plan, ""); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *TreatmentPlanService) List(ctx context.Context, in TreatmentPlanListInput) (*ListResult[model.TreatmentPlan], error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	page, limit := normalizePage(in.Page, in.Limit)
	plans, total, err := s.plans.ListTreatmentPlans(ctx, storage.TreatmentPlanFilter{
		CaseID:   in.CaseID,
		DoctorID: in.DoctorID,
		Status:   in.Status,
		Page:     pageWindow(page, limit),
	})
	if err != nil {
		return nil, err
	}
	return newListResult(plans, total, page, limit), nil
}

func (s *TreatmentPlanService) Get(ctx context.Context, id string) (*model.TreatmentPlan, error) {
	return s.plans.FindTreatmentPlanByID(ctx, id)
}

func (s *TreatmentPlanService) Update(ctx context.Context, id string, in UpdateTreatmentPlanInput) (*model.TreatmentPlan, error) {
	in.Summary = trimPtr(in.Summary)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	plan, err := s.plans.FindTreatmentPlanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Summary != nil {
		plan.Summary = *in.Summary
	}
	if in.Medication != nil {
		plan.Medication = strings.TrimSpace(*in.Medication)
	}
	if in.EstimatedCost != nil {
		plan.EstimatedCost = *in.EstimatedCost
	}
	if in.Status != nil {
		plan.Status = *in.Status
	}
	if err := s.plans.UpdateTreatmentPlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes the plan and its payments.
func (s *TreatmentPlanService) Delete(ctx context.Context, id string) error {
	return s.plans.DeleteTreatmentPlan(ctx, id)
}
