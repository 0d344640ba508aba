package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/auth"
	"github.com/khanghh/taskvault/internal/config"
	"github.com/khanghh/taskvault/internal/handlers/api"
	"github.com/khanghh/taskvault/internal/mail"
	"github.com/khanghh/taskvault/internal/middlewares"
	"github.com/khanghh/taskvault/internal/render"
	"github.com/khanghh/taskvault/internal/store"
	"github.com/khanghh/taskvault/internal/todos"
	"github.com/khanghh/taskvault/internal/users"
	"github.com/khanghh/taskvault/model"
	"github.com/khanghh/taskvault/params"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "taskvault - a secure todo list backend"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database handle", "error", err)
		os.Exit(1)
	}
	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	if dbConfig.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(dbConfig.ConnMaxIdleTime) * time.Second)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Second)
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	switch mailCfg.Backend {
	case "smtp":
		sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
			TLS:      mailCfg.SMTP.TLS,
			CertFile: mailCfg.SMTP.CertFile,
			KeyFile:  mailCfg.SMTP.KeyFile,
			CAFile:   mailCfg.SMTP.CAFile,
		}, mailCfg.From)
		if err != nil {
			log.Fatalf("Failed to initialize SMTP mail sender: %v", err)
		}
		return sender
	case "log":
		return mail.NewLogMailSender()
	case "":
		log.Fatal("Missing mail sender backend")
	}
	log.Fatalf("Unsupported mail sender backend %s", mailCfg.Backend)
	return nil
}

// initBlacklistStorage prefers Redis for its native TTL sweep; without a
// configured Redis instance revoked tokens are tracked in process memory.
func initBlacklistStorage(redisCfg config.RedisConfig) (store.Storage, redis.UniversalClient) {
	if redisCfg.URL == "" {
		slog.Warn("Redis not configured, using in-memory token blacklist")
		return store.NewMemoryStorage(), nil
	}
	redisStorage := fiberredis.New(fiberredis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
	return store.NewRedisStorage(redisStorage.Conn()), redisStorage.Conn()
}

func setupAPIRoutes(
	router fiber.Router,
	authService *auth.AuthService,
	userService *users.UserService,
	todoService *todos.TodoService,
	auditService *audit.AuditService,
	auditLog *audit.Logger,
) {
	// handlers
	var (
		authHandler  = api.NewAuthHandler(authService)
		userHandler  = api.NewUserHandler(userService)
		todoHandler  = api.NewTodoHandler(todoService)
		auditHandler = api.NewAuditHandler(auditService)
	)

	// gates, composed explicitly per route
	var (
		requireAuth       = middlewares.RequireAuth(authService, auditLog)
		requireMFAPending = middlewares.RequireMFAPending(authService, auditLog)
		requireAdmin      = middlewares.RequireRoles(auditLog, model.RoleAdmin)
	)

	// public routes
	router.Post("/auth/register", authHandler.PostRegister)
	router.Post("/auth/verify-otp", authHandler.PostVerifyOTP)
	router.Post("/auth/login", authHandler.PostLogin)
	router.Post("/auth/send-otp", authHandler.PostSendOTP)
	router.Post("/auth/resend-otp", authHandler.PostResendOTP)
	router.Get("/auth/otp-status/:email", authHandler.GetOTPStatus)
	router.Post("/auth/forgot-password", authHandler.PostForgotPassword)
	router.Post("/auth/reset-password", authHandler.PostResetPassword)

	// MFA-pending token only
	router.Post("/auth/mfa/verify-login", requireMFAPending, authHandler.PostMFAVerifyLogin)

	// authenticated routes
	router.Post("/auth/logout", requireAuth, authHandler.PostLogout)
	router.Post("/auth/mfa/setup", requireAuth, authHandler.PostMFASetup)
	router.Post("/auth/mfa/activate", requireAuth, authHandler.PostMFAActivate)
	router.Post("/auth/mfa/disable", requireAuth, authHandler.PostMFADisable)
	router.Post("/auth/mfa/backup-codes", requireAuth, authHandler.PostMFABackupCodes)

	router.Get("/users/me", requireAuth, userHandler.GetMe)
	router.Put("/users/me", requireAuth, userHandler.PutMe)
	router.Delete("/users/me", requireAuth, userHandler.DeleteMe)

	router.Post("/todos", requireAuth, todoHandler.PostTodo)
	router.Get("/todos", requireAuth, todoHandler.GetTodos)
	router.Get("/todos/:id", requireAuth, todoHandler.GetTodo)
	router.Put("/todos/:id", requireAuth, todoHandler.PutTodo)
	router.Delete("/todos/:id", requireAuth, todoHandler.DeleteTodo)

	// admin routes
	router.Get("/users", requireAuth, requireAdmin, userHandler.GetUsers)
	router.Get("/users/search", requireAuth, requireAdmin, userHandler.GetUserSearch)
	router.Put("/users/:id/role", requireAuth, requireAdmin, userHandler.PutUserRole)
	router.Delete("/users/:id", requireAuth, requireAdmin, userHandler.DeleteUser)
	router.Get("/audit", requireAuth, requireAdmin, auditHandler.GetAuditLogs)
	router.Delete("/audit/purge", requireAuth, requireAdmin, auditHandler.DeleteOldAuditLogs)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	if err := render.Initialize(map[string]interface{}{"siteName": cfg.SiteName}, cfg.TemplateDir); err != nil {
		slog.Error("Failed to initialize templates", "error", err)
		return err
	}

	mailSender := mustInitMailSender(cfg.Mail)
	db := mustInitDatabase(cfg.MySQL)
	blacklistStorage, redisConn := initBlacklistStorage(cfg.Redis)

	// repositories
	var (
		userRepo  = users.NewUserRepository(db)
		todoRepo  = todos.NewTodoRepository(db)
		auditRepo = audit.NewAuditLogRepository(db)
	)

	// services
	var (
		auditLog     = audit.NewLogger(auditRepo)
		auditService = audit.NewAuditService(auditRepo)
		tokens       = auth.NewTokenService(cfg.MasterKey)
		blacklist    = auth.NewTokenBlacklist(store.StorageWithPrefix(blacklistStorage, params.BlacklistKeyPrefix))
		authService  = auth.NewAuthService(userRepo, tokens, blacklist, auditLog, mailSender, cfg.SiteName)
		userService  = users.NewUserService(userRepo)
		todoService  = todos.NewTodoService(todoRepo)
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupAPIRoutes(router.Group("/api"), authService, userService, todoService, auditService, auditLog)

	go startHealthCheckServer(params.HealthCheckServerAddr, redisConn, db)

	slog.Info("Starting server", "addr", cfg.ListenAddr, "version", params.Version)
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
