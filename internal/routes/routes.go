package routes

import (
	"patient-intake-server/internal/analysis"
	"patient-intake-server/internal/auth"
	"patient-intake-server/internal/checkins"
	"patient-intake-server/internal/config"
	"patient-intake-server/internal/handlers"
	"patient-intake-server/internal/middleware"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/patients"
	"patient-intake-server/internal/reports"
	"patient-intake-server/internal/speech"
	"patient-intake-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the services the handlers are built from.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Auth     *auth.Service
	Patients *patients.Directory
	Analyzer analysis.Analyzer
	Reports  *reports.Generator
	CheckIns *checkins.Recorder
	Sessions *workflow.Manager
	Speech   *speech.Adapter
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Config)
	userHandler := handlers.NewUserHandler(deps.Auth)
	checkInHandler := handlers.NewCheckInHandler(deps.Sessions)
	patientHandler := handlers.NewPatientHandler(deps.Patients)
	analysisHandler := handlers.NewAnalysisHandler(deps.Analyzer)
	speechHandler := handlers.NewSpeechHandler(deps.Speech)
	reportHandler := handlers.NewReportHandler(deps.Reports)
	visitHandler := handlers.NewVisitHandler(deps.CheckIns)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	// Public routes: the intake kiosk never signs in.
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/sign-up", authHandler.SignUp)
			authRoutes.POST("/sign-in", authHandler.SignIn)
			authRoutes.POST("/sign-out", authHandler.SignOut)
			authRoutes.GET("/session", authHandler.Session)
		}

		sessionRoutes := public.Group("/checkins/sessions")
		{
			sessionRoutes.POST("", checkInHandler.StartSession)
			sessionRoutes.GET("/:id", checkInHandler.GetSession)
			sessionRoutes.DELETE("/:id", checkInHandler.DeleteSession)
			sessionRoutes.POST("/:id/register", checkInHandler.Register)
			sessionRoutes.POST("/:id/verify", checkInHandler.Verify)
			sessionRoutes.POST("/:id/symptoms", checkInHandler.SubmitSymptoms)
			sessionRoutes.POST("/:id/report", checkInHandler.GenerateReport)
			sessionRoutes.POST("/:id/reset", checkInHandler.Reset)
		}

		public.POST("/speech/transcribe", speechHandler.Transcribe)
		public.POST("/analysis", analysisHandler.Analyze)
	}

	// Staff routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(deps.Auth.Tokens()))
	{
		private.GET("/auth/me", authHandler.Me)

		private.GET("/patients/:id", patientHandler.GetPatient)
		private.POST("/patients", patientHandler.CreatePatient)

		private.GET("/visits", visitHandler.ListVisits)
		private.GET("/visits/:id", visitHandler.GetVisit)
		private.GET("/visits/:id/analysis", visitHandler.GetVisitAnalysis)

		private.GET("/reports/:key", reportHandler.Download)

		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	router.GET("/health", healthHandler.Health)
}
