package httpapi

import (
	"github.com/gin-gonic/gin"

	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/cache"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
)

const apiPrefix = "/api/v1"

// RouterOptions configure the cross-cutting middleware.
type RouterOptions struct {
	Tokens      *auth.TokenManager
	Limiter     *cache.RateLimiter
	CORSOrigins []string
	VerifyToken string
	// UploadsDir is served at /uploads when media is stored on local disk.
	UploadsDir string
}

// NewRouter builds the gin engine with every API route.
func NewRouter(svc Services, opts RouterOptions) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), AccessLog(), Recovery(), CORS(opts.CORSOrigins))
	engine.NoRoute(func(c *gin.Context) {
		WriteError(c, errNoRoute)
	})
	if opts.UploadsDir != "" {
		engine.Static("/uploads", opts.UploadsDir)
	}

	h := NewHandler(svc, opts.VerifyToken)
	authed := Authenticate(opts.Tokens)
	admin := RequireRole(model.RoleAdmin)

	api := engine.Group(apiPrefix)

	api.GET("/status", h.status)
	api.POST("/report-violation", h.reportViolation)
	api.GET("/overview", authed, admin, h.overview)

	authGroup := api.Group("/auth", RateLimit(opts.Limiter))
	{
		authGroup.POST("/register", handle(h.register))
		authGroup.POST("/login", handle(h.login))
		authGroup.POST("/refresh-token", handle(h.refreshToken))
		authGroup.POST("/request-password", handle(h.requestPassword))
		authGroup.POST("/logout", authed, handle(h.logout))
		authGroup.PATCH("/confirm", authed, handle(h.confirm))
	}

	users := api.Group("/users", authed)
	{
		users.GET("/profile", handle(h.profile))
		users.GET("", admin, handle(h.listUsers))
		users.POST("", admin, handle(h.createUser))
		users.GET("/:userId", admin, handle(h.getUser))
		users.PUT("/:userId", admin, handle(h.updateUser))
		users.DELETE("/:userId", admin, handle(h.deleteUser))
	}

	franchises := api.Group("/franchises", authed, admin)
	{
		franchises.POST("", handle(h.createFranchise))
		franchises.GET("", handle(h.listFranchises))
		franchises.GET("/:franchiseId", handle(h.getFranchise))
		franchises.PUT("/:franchiseId", handle(h.updateFranchise))
		franchises.DELETE("/:franchiseId", handle(h.deactivateFranchise))
	}

	api.GET("/qrcodes/code/:code", handle(h.getQRCodeByCode))
	qrcodes := api.Group("/qrcodes", authed, admin)
	{
		qrcodes.POST("", handle(h.createQRCode))
		qrcodes.GET("", handle(h.listQRCodes))
		qrcodes.GET("/:qrcodeId", handle(h.getQRCode))
		qrcodes.PUT("/:qrcodeId", handle(h.updateQRCode))
		qrcodes.DELETE("/:qrcodeId", handle(h.deactivateQRCode))
	}

	doctors := api.Group("/doctors", authed)
	{
		doctors.GET("", handle(h.listDoctors))
		doctors.GET("/:doctorId", handle(h.getDoctor))
		doctors.POST("", admin, handle(h.createDoctor))
		doctors.PUT("/:doctorId", admin, handle(h.updateDoctor))
		doctors.PATCH("/:doctorId", admin, handle(h.deactivateDoctor))
		doctors.DELETE("/:doctorId", admin, handle(h.deleteDoctor))
	}

	patients := api.Group("/patients", authed)
	{
		patients.POST("/list", handle(h.listPatients))
		patients.POST("", handle(h.createPatient))
		patients.GET("/:patientId", handle(h.getPatient))
		patients.PATCH("/:patientId", handle(h.updatePatient))
		patients.PATCH("/:patientId/cases/:caseId/assign-doctor", handle(h.assignPatientDoctor))
		patients.POST("/:patientId/cases/:caseId/treatment-plan", handle(h.addPatientTreatmentPlan))
	}

	cases := api.Group("/cases", authed)
	{
		cases.POST("", handle(h.createCase))
		cases.GET("", handle(h.listCases))
		cases.GET("/:caseId", handle(h.getCase))
		cases.PUT("/:caseId", handle(h.updateCase))
		cases.PUT("/:caseId/assign-doctor", handle(h.assignCaseDoctor))
		cases.PUT("/:caseId/treatment-plan", handle(h.updateCaseTreatmentPlan))
		cases.PUT("/:caseId/approve-cost", handle(h.approveCaseCost))
		cases.PUT("/:caseId/complete", handle(h.completeCase))
	}

	plans := api.Group("/treatment-plans", authed)
	{
		plans.POST("/create", handle(h.createTreatmentPlan))
		plans.POST("/list", handle(h.listTreatmentPlans))
		plans.GET("/:id", handle(h.getTreatmentPlan))
		plans.PUT("/:id", handle(h.updateTreatmentPlan))
		plans.DELETE("/:id", handle(h.deleteTreatmentPlan))
	}

	medias := api.Group("/medias", authed, RequireRole(model.RoleAdmin, model.RoleUser))
	{
		medias.GET("", handle(h.listMedia))
		medias.POST("", handle(h.uploadMedia))
		medias.GET("/:mediaId", handle(h.getMedia))
		medias.PUT("/:mediaId", handle(h.replaceMedia))
		medias.PATCH("/:mediaId", handle(h.renameMedia))
		medias.DELETE("/:mediaId", handle(h.deleteMedia))
	}

	webhooks := api.Group("/webhooks")
	{
		webhooks.GET("", h.verifyWebhook)
		webhooks.POST("", h.receiveWebhook)
		webhooks.POST("/message", authed, admin, handle(h.sendMessage))
		webhooks.POST("/template", authed, admin, handle(h.sendTemplate))
	}

	return engine
}
