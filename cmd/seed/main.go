// seed carga usuarios, empresas y oportunidades de demostración en PostgreSQL
// e imprime un token JWT por rol para probar la API.
//
// Uso: go run ./cmd/seed
// Lee la misma configuración que cmd/api (DATABASE_URL o DB_*, JWT_SECRET).
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/infrastructure/postgres"
	"github.com/asesoriaprevencion/crm-api/internal/seed"
	"github.com/asesoriaprevencion/crm-api/pkg/config"
	"github.com/asesoriaprevencion/crm-api/pkg/jwt"
	"github.com/asesoriaprevencion/crm-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if cfg.DB.Driver != config.DriverPostgres {
		fmt.Fprintln(os.Stderr, "seed requiere DB_DRIVER=postgres (con memory la API ya carga la demostración al iniciar)")
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "crm-seed"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	users := postgres.NewUserRepository(pool)
	companies := postgres.NewCompanyRepository(pool)
	opportunities := postgres.NewOpportunityRepository(pool)
	tx := postgres.NewTxRunner(pool)

	companyUC := usecase.NewCompanyUseCase(tx, companies, opportunities, users)
	opportunityUC := usecase.NewOpportunityUseCase(tx, opportunities, companies, users, nil, log.Zerolog())

	res, err := seed.Run(ctx, users, companyUC, opportunityUC, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}

	if cfg.JWT.Secret == "" {
		fmt.Println("JWT_SECRET vacío: no se generan tokens")
		return
	}
	roles := make([]string, 0, len(res.Users))
	for role := range res.Users {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		u := res.Users[role]
		tok, err := jwt.Generate(cfg.JWT.Secret, u.ID, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			log.Fatal().Err(err).Msg("generar token")
		}
		fmt.Printf("%-14s %-40s Bearer %s\n", role, u.Email, tok)
	}
}
