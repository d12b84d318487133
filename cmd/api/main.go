package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
	infraaudit "github.com/asesoriaprevencion/crm-api/internal/infrastructure/audit"
	"github.com/asesoriaprevencion/crm-api/internal/infrastructure/memory"
	infrapdf "github.com/asesoriaprevencion/crm-api/internal/infrastructure/pdf"
	"github.com/asesoriaprevencion/crm-api/internal/infrastructure/postgres"
	httpRouter "github.com/asesoriaprevencion/crm-api/internal/interfaces/http"
	"github.com/asesoriaprevencion/crm-api/internal/seed"
	"github.com/asesoriaprevencion/crm-api/pkg/config"
	"github.com/asesoriaprevencion/crm-api/pkg/jwt"
	"github.com/asesoriaprevencion/crm-api/pkg/logger"
)

// storage repositorios y runner de transacciones del driver elegido.
type storage struct {
	tx            usecase.TxRunner
	companies     repository.CompanyRepository
	opportunities repository.OpportunityRepository
	users         repository.UserRepository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	var (
		st        storage
		memStore  *memory.Store
		seedUsers seed.UserStore
	)
	switch cfg.DB.Driver {
	case config.DriverMemory:
		memStore = memory.NewStore()
		st = storage{
			tx:            memStore,
			companies:     memStore.Companies(),
			opportunities: memStore.Opportunities(),
			users:         memStore.Users(),
			close:         func() {},
		}
		seedUsers = memStore.Users()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("aplicar esquema")
			}
			log.Info().Msg("esquema aplicado")
		}
		st = storage{
			tx:            postgres.NewTxRunner(pool),
			companies:     postgres.NewCompanyRepository(pool),
			opportunities: postgres.NewOpportunityRepository(pool),
			users:         postgres.NewUserRepository(pool),
			close:         pool.Close,
		}
	}
	defer st.close()

	auditRecorder := infraaudit.NewZerologRecorder(log.Zerolog())
	companyUC := usecase.NewCompanyUseCase(st.tx, st.companies, st.opportunities, st.users)
	opportunityUC := usecase.NewOpportunityUseCase(st.tx, st.opportunities, st.companies, st.users, auditRecorder, log.Zerolog())
	reportUC := usecase.NewReportUseCase(companyUC, opportunityUC, infrapdf.NewPipelineReportGenerator())

	// Memoria: datos de demostración y un token por rol para probar la API localmente.
	if memStore != nil {
		res, err := seed.Run(ctx, seedUsers, companyUC, opportunityUC, log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("cargar datos de demostración")
		}
		for role, u := range res.Users {
			tok, err := jwt.Generate(cfg.JWT.Secret, u.ID, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
			if err != nil {
				log.Fatal().Err(err).Msg("generar token de desarrollo")
			}
			log.Info().Str("role", role).Int64("user_id", u.ID).Str("token", tok).Msg("token de desarrollo")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "CRM Asesoría Prevención API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:     companyUC,
		OpportunityUC: opportunityUC,
		ReportUC:      reportUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
