package httpapi

import (
	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/ingestion"
	"gitlab.com/timkado/api/clinic-case-service/internal/reqctx"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

// Services are the use cases the API exposes. Every field is required.
type Services struct {
	Auth           *usecase.AuthService
	Users          *usecase.UserService
	Franchises     *usecase.FranchiseService
	QRCodes        *usecase.QRCodeService
	Doctors        *usecase.DoctorService
	Patients       *usecase.PatientService
	Cases          *usecase.CaseService
	TreatmentPlans *usecase.TreatmentPlanService
	Media          *usecase.MediaService
	Messaging      *usecase.MessagingService
	Dashboard      *usecase.DashboardService
	Webhooks       ingestion.RouterInterface
}

// Handler holds the route handlers. Handlers bind the request, call one use
// case and write its result; validation lives in the use cases.
type Handler struct {
	svc         Services
	verifyToken string
}

func NewHandler(svc Services, verifyToken string) *Handler {
	return &Handler{svc: svc, verifyToken: verifyToken}
}

func principal(c *gin.Context) reqctx.Principal {
	return reqctx.MustPrincipal(c.Request.Context())
}
