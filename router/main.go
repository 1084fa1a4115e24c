package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/config"
	"github.com/campusmind/console-api/database"
	"github.com/campusmind/console-api/handlers"
	auth_handlers "github.com/campusmind/console-api/handlers/auth"
	branch_handlers "github.com/campusmind/console-api/handlers/branch"
	chat_handlers "github.com/campusmind/console-api/handlers/chat"
	console_handlers "github.com/campusmind/console-api/handlers/console"
	document_handlers "github.com/campusmind/console-api/handlers/document"
	semester_handlers "github.com/campusmind/console-api/handlers/semester"
	student_handlers "github.com/campusmind/console-api/handlers/student"
	subject_handlers "github.com/campusmind/console-api/handlers/subject"
	university_handlers "github.com/campusmind/console-api/handlers/university"
	"github.com/campusmind/console-api/navigator"
	"github.com/campusmind/console-api/services"
	"github.com/campusmind/console-api/services/storage"
	"github.com/campusmind/console-api/utils"
	"github.com/campusmind/console-api/utils/auth"
	"github.com/campusmind/console-api/utils/cache"
	"github.com/campusmind/console-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	jwtSecret := env.JWT_SECRET
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "campusmind-console-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs brute force protection; the API stays up without it
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	// Navigator sessions share one loader; cascade deletes notify the registry
	registry := navigator.NewRegistry(services.NewCatalogLoader(db))

	// Services
	catalogService := services.NewCatalogService(db, registry)
	emailService := services.NewEmailService(env)
	importService := services.NewImportService(db, emailService)
	rosterService := services.NewRosterService(db)

	var blobStore services.BlobStore
	if env.BLOB_BUCKET != "" {
		blobClient, err := storage.NewBlobClient(env)
		if err != nil {
			log.Printf("Warning: Failed to initialize blob store: %v. Material uploads will fail.", err)
		} else {
			blobStore = blobClient
		}
	}
	documentService := services.NewDocumentService(db, blobStore)

	// Handlers
	universityHandler := university_handlers.NewUniversityHandler(db)
	branchHandler := branch_handlers.NewBranchHandler(db, catalogService)
	semesterHandler := semester_handlers.NewSemesterHandler(db, catalogService)
	subjectHandler := subject_handlers.NewSubjectHandler(db, catalogService)
	documentHandler := document_handlers.NewDocumentHandler(db, documentService)
	studentHandler := student_handlers.NewStudentHandler(db, rosterService, importService)
	consoleHandler := console_handlers.NewConsoleHandler(registry)
	chatHandler := chat_handlers.NewChatHandler(db)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// University management (master admin only)
	universities := api.Group("/universities", authMiddleware.RequireMaster())
	universities.Get("/", universityHandler.ListUniversities)
	universities.Get("/:id", universityHandler.GetUniversity)
	universities.Post("/", universityHandler.CreateUniversity)
	universities.Put("/:id", universityHandler.UpdateUniversity)
	universities.Delete("/:id", universityHandler.DeleteUniversity)
	universities.Get("/:id/admins", universityHandler.ListAdmins)
	universities.Post("/:id/admins", universityHandler.CreateAdmin)

	// Catalog management (university admin only)
	branches := api.Group("/branches", authMiddleware.RequireUniversityAdmin())
	branches.Get("/", branchHandler.ListBranches)
	branches.Post("/", branchHandler.CreateBranch)
	branches.Delete("/:id", branchHandler.DeleteBranch)
	branches.Get("/:branch_id/semesters", semesterHandler.ListSemesters)
	branches.Post("/:branch_id/semesters", semesterHandler.CreateSemester)

	semesters := api.Group("/semesters", authMiddleware.RequireUniversityAdmin())
	semesters.Delete("/:id", semesterHandler.DeleteSemester)
	semesters.Get("/:semester_id/subjects", subjectHandler.ListSubjects)
	semesters.Post("/:semester_id/subjects", subjectHandler.CreateSubject)

	subjects := api.Group("/subjects", authMiddleware.RequireUniversityAdmin())
	subjects.Delete("/:id", subjectHandler.DeleteSubject)
	subjects.Get("/:subject_id/documents", documentHandler.ListDocuments)
	subjects.Post("/:subject_id/documents", documentHandler.CreateManual)
	subjects.Post("/:subject_id/documents/upload", documentHandler.UploadPDF)

	documents := api.Group("/documents", authMiddleware.RequireUniversityAdmin())
	documents.Get("/:id/download", documentHandler.DownloadURL)
	documents.Delete("/:id", documentHandler.DeleteDocument)

	// Roster management (university admin only)
	students := api.Group("/students", authMiddleware.RequireUniversityAdmin())
	students.Get("/", studentHandler.ListStudents)
	students.Post("/import", studentHandler.ImportStudents)
	students.Get("/:id", studentHandler.GetStudent)
	students.Post("/:id/activate", studentHandler.ActivateStudent)
	students.Post("/:id/deactivate", studentHandler.DeactivateStudent)
	students.Delete("/:id", studentHandler.DeleteStudent)

	// Hierarchy navigator (university admin only)
	console := api.Group("/console/navigator", authMiddleware.RequireUniversityAdmin())
	console.Get("/", consoleHandler.GetState)
	console.Post("/refresh", consoleHandler.Refresh)
	console.Post("/select", consoleHandler.Select)
	console.Post("/select/:level/:id", consoleHandler.SelectByQuery)

	// Student chats
	chats := api.Group("/chats", authMiddleware.RequireStudent())
	chats.Get("/", chatHandler.ListChats)
	chats.Post("/", chatHandler.CreateChat)
	chats.Get("/:id/messages", chatHandler.GetMessages)
	chats.Post("/:id/messages", chatHandler.AddMessage)
	chats.Delete("/:id", chatHandler.DeleteChat)
}
