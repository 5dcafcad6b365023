package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "immitrack/docs"
	"immitrack/internal/config"
	"immitrack/internal/handlers"
	"immitrack/internal/pdf"
	"immitrack/internal/realtime"
	"immitrack/internal/repositories"
	"immitrack/internal/routes"
	"immitrack/internal/services"
)

// App holds the wired dependencies shared by the server and the CLI commands.
type App struct {
	Config   *config.Config
	DB       *sql.DB // nil for the memory driver
	Repo     repositories.TaskRepository
	Seeder   repositories.Seeder
	State    *services.TaskState
	Hub      *realtime.TaskHub
	Notifier services.Notifier // nil when nothing is configured
	Auth     *services.AuthService
	PDF      *pdf.ReportGenerator
}

// OpenDB opens and pings the configured database. driver is "postgres" (lib/pq) or "pgx".
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// New wires storage, state and notifiers. It does not load tasks.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	// === Storage ===
	switch cfg.Database.Driver {
	case "memory":
		mem := repositories.NewMemoryTaskRepository()
		a.Repo, a.Seeder = mem, mem
		log.Printf("[app] using in-memory task store")
	default:
		db, err := OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.DB = db
		repo := repositories.NewTaskRepository(db)
		a.Repo = repo
		a.Seeder = repo.(repositories.Seeder)
	}

	// === Notifiers ===
	var notifiers services.MultiNotifier
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, services.NewEmailNotifier(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			cfg.Email.To,
		))
	}
	if cfg.TelegramEnabled() {
		tg, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs)
		if err != nil {
			log.Printf("[app][tg][err] notifications disabled: %v", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if len(notifiers) > 0 {
		a.Notifier = notifiers
	}

	// === State ===
	a.Hub = realtime.NewTaskHub()
	a.State = services.NewTaskState(services.NewTaskService(a.Repo), a.Notifier, a.Hub, services.StateOptions{
		FundsTaskID:        cfg.State.FundsTaskID,
		ReconcileOnFailure: cfg.State.ReconcileOnFailure,
	})

	a.Auth = services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Accounts)
	a.PDF = pdf.NewReportGenerator(cfg.Files.RootDir, cfg.Files.FontPath)
	return a, nil
}

func (a *App) Close() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("[app] db close: %v", err)
	}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		a.Auth.Secret(),
		handlers.NewAuthHandler(a.Auth),
		handlers.NewTaskHandler(a.State),
		handlers.NewReportHandler(a.State, a.PDF, a.Config.Digest.HorizonDays),
		handlers.NewRealtimeHandler(a.Hub),
	)
	return router
}

// Serve loads the task list and runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if err := a.State.Load(ctx); err != nil {
		// start with an empty board; POST /reload retries
		log.Printf("[app] initial load failed: %v", err)
	}
	if !a.Auth.Enabled() {
		log.Printf("[app] auth.jwt_secret is empty: API is open")
	}

	go services.RunDigestLoop(ctx, a.State, a.Notifier, a.Config.Digest.Interval, a.Config.Digest.HorizonDays)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.State.Wait()
	return err
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
