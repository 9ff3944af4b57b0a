package integration_test

import (
	"errors"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

type caseServices struct {
	doctors  *usecase.DoctorService
	patients *usecase.PatientService
	cases    *usecase.CaseService
	plans    *usecase.TreatmentPlanService
}

func (s *ClinicIntegrationSuite) caseServices(notifier usecase.INotificationWorker) caseServices {
	repos := s.Repos
	cases := usecase.NewCaseService(repos.Cases, repos.QRCodes, repos.Doctors, notifier, nil,
		usecase.CaseNotifyConfig{SupportTeamPhone: "919811111111"})
	return caseServices{
		doctors:  usecase.NewDoctorService(repos.Doctors, repos.Users),
		patients: usecase.NewPatientService(repos.Patients, repos.Franchises, repos.Cases, repos.TreatmentPlans, cases, notifier, nil),
		cases:    cases,
		plans:    usecase.NewTreatmentPlanService(repos.TreatmentPlans, repos.Cases),
	}
}

func (s *ClinicIntegrationSuite) createDoctor(svc caseServices) *model.Doctor {
	doctor, err := svc.doctors.Create(s.Ctx, usecase.CreateDoctorInput{
		Name:      "Dr. Meera Rao",
		Specialty: "Dermatology",
		Phone:     "+919822222222",
		Username:  "drmeera",
		Email:     "meera@example.com",
		Password:  "Doctor1234",
	})
	s.Require().NoError(err)
	return doctor
}

func (s *ClinicIntegrationSuite) TestCaseLifecycle() {
	franchise := s.createFranchise()
	notifier := &recordingNotifier{}
	svc := s.caseServices(notifier)
	doctor := s.createDoctor(svc)

	patient, err := svc.patients.Create(s.Ctx, usecase.CreatePatientInput{
		Firstname:   "Asha",
		Lastname:    "Kumar",
		Phone:       model.NewIndianPhone(),
		Age:         34,
		Gender:      "female",
		FranchiseID: franchise.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(patient.Cases, 1)
	caseID := patient.Cases[0].ID
	s.Equal(model.CaseStatusNew, patient.Cases[0].Status)

	_, err = svc.cases.ApproveCost(s.Ctx, caseID)
	s.Require().Error(err, "cost cannot be approved before a plan")
	s.True(errors.Is(err, apperrors.ErrConflict))

	assigned, err := svc.patients.AssignDoctor(s.Ctx, patient.ID, caseID, doctor.ID)
	s.Require().NoError(err)
	s.Equal(model.CaseStatusDoctorAssigned, assigned.Status)
	s.Require().NotNil(assigned.DoctorID)
	s.Equal(doctor.ID, *assigned.DoctorID)

	plan, err := svc.patients.AddTreatmentPlan(s.Ctx, patient.ID, caseID, usecase.PatientTreatmentPlanInput{
		DoctorID:      doctor.ID,
		Summary:       "Topical treatment for four weeks",
		Medication:    "Tretinoin",
		EstimatedCost: 4200,
	})
	s.Require().NoError(err)
	s.Equal(model.PlanStatusPlanned, plan.Status)

	planned, err := svc.cases.Get(s.Ctx, caseID)
	s.Require().NoError(err)
	s.Equal(model.CaseStatusTreatmentPlanned, planned.Status)

	_, err = svc.cases.UpdateTreatmentPlan(s.Ctx, caseID, 4200)
	s.Require().NoError(err)

	approved, err := svc.cases.ApproveCost(s.Ctx, caseID)
	s.Require().NoError(err)
	s.Equal(model.CaseStatusCostApproved, approved.Status)
	s.Equal(4200.0, approved.MedicationCost)

	completed, err := svc.cases.Complete(s.Ctx, caseID)
	s.Require().NoError(err)
	s.Equal(model.CaseStatusCompleted, completed.Status)

	_, err = svc.cases.AssignDoctor(s.Ctx, caseID, doctor.ID)
	s.True(errors.Is(err, apperrors.ErrConflict), "completed cases are closed")

	s.NotEmpty(notifier.Tasks())
}

func (s *ClinicIntegrationSuite) TestDashboardOverview() {
	franchise := s.createFranchise()
	svc := s.caseServices(nil)
	doctor := s.createDoctor(svc)

	var caseIDs []string
	for i := 0; i < 3; i++ {
		patient, err := svc.patients.Create(s.Ctx, usecase.CreatePatientInput{
			Firstname:   "Patient",
			Phone:       model.NewIndianPhone(),
			FranchiseID: franchise.ID,
		})
		s.Require().NoError(err)
		s.Require().Len(patient.Cases, 1)
		caseIDs = append(caseIDs, patient.Cases[0].ID)
	}

	_, err := svc.cases.AssignDoctor(s.Ctx, caseIDs[0], doctor.ID)
	s.Require().NoError(err)
	_, err = svc.plans.Create(s.Ctx, usecase.CreateTreatmentPlanInput{
		CaseID:        caseIDs[0],
		DoctorID:      doctor.ID,
		Summary:       "Follow-up in two weeks",
		EstimatedCost: 800,
	})
	s.Require().NoError(err)
	_, err = svc.cases.UpdateTreatmentPlan(s.Ctx, caseIDs[0], 800)
	s.Require().NoError(err)
	_, err = svc.cases.ApproveCost(s.Ctx, caseIDs[0])
	s.Require().NoError(err)
	_, err = svc.cases.Complete(s.Ctx, caseIDs[0])
	s.Require().NoError(err)

	overview, err := usecase.NewDashboardService(s.Repos.Dashboard).Overview(s.Ctx)
	s.Require().NoError(err)

	s.Equal(3.0, overview.Widgets.TotalRequests.Total)
	s.Equal(2.0, overview.Widgets.PendingCases.Total)
	s.Equal(1.0, overview.Widgets.ActiveLocations.Total)
	s.Len(overview.WebsiteVisits.Categories, len(overview.Widgets.TotalRequests.Series))
	s.Contains(overview.ConversionRates.Categories, "India")
	s.Len(overview.ConversionRates.Series, 2)
}
