package di

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"lending-admin-api/internal/apikey"
	"lending-admin-api/internal/application/usecases"
	"lending-admin-api/internal/authz"
	"lending-admin-api/internal/domain/repositories"
	"lending-admin-api/internal/handler"
	"lending-admin-api/internal/infrastructure/config"
	repo "lending-admin-api/internal/infrastructure/repository/sqlite"
	"lending-admin-api/internal/middleware"
	"lending-admin-api/internal/presentation/http/validation"
	"lending-admin-api/internal/ratelimit"
	"lending-admin-api/internal/server"
)

// Container provides app-wide singletons for repos/usecases/handlers.
type Container struct {
	DB     *sql.DB
	Logger *zap.Logger

	// Repositories
	Clients      repositories.ClientRepository
	ConnectCodes repositories.ConnectCodeRepository

	// Usecases
	ClientUC      *usecases.ClientUseCase
	ConnectCodeUC *usecases.ConnectCodeUseCase

	// HTTP
	Errors  *middleware.ErrorHandler
	Handler *handler.Handler
	Server  *server.Server
}

func New(cfg *config.Config, db *sql.DB, l *zap.Logger) (*Container, error) {
	c := &Container{
		DB:           db,
		Logger:       l,
		Clients:      repo.NewClientRepo(db),
		ConnectCodes: repo.NewConnectCodeRepo(db),
	}

	// Build usecases
	c.ClientUC = usecases.NewClientUseCase(c.Clients)
	c.ConnectCodeUC = usecases.NewConnectCodeUseCase(
		c.ConnectCodes,
		c.Clients,
		ratelimit.New(cfg.ConnectCode.RedeemPerMinute, cfg.ConnectCode.RedeemBurst),
		usecases.ConnectCodeConfig{TTL: cfg.ConnectCode.TTL, CodeLength: cfg.ConnectCode.Length},
	)

	policies := cfg.Security.Policies
	if len(policies) == 0 {
		policies = authz.DefaultPolicies
	}
	enforcer, err := authz.NewEnforcer(policies)
	if err != nil {
		return nil, fmt.Errorf("build authorization: %w", err)
	}
	keys := make([]apikey.Key, 0, len(cfg.Security.AdminKeys))
	for _, k := range cfg.Security.AdminKeys {
		keys = append(keys, apikey.Key{Name: k.Name, Role: k.Role, Hash: k.Hash})
	}

	// Build HTTP layer
	c.Errors = middleware.NewErrorHandler(l,
		middleware.WithTimestamp(cfg.Errors.IncludeTimestamp),
		middleware.WithInternalMessages(cfg.Errors.ExposeInternalMessages),
	)
	c.Handler = handler.New(c.ClientUC, c.ConnectCodeUC, validation.New(), l)
	c.Server = server.New(server.Deps{
		Handler:        c.Handler,
		Errors:         c.Errors,
		Keys:           apikey.NewRegistry(keys),
		Enforcer:       enforcer,
		Logger:         l,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	return c, nil
}
