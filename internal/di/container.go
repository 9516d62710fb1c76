// Package di wires the application dependency graph by hand: config in,
// logger, store, services and HTTP surface out.
package di

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"worldgraph-backend/interfaces/http/rest/middleware"
	"worldgraph-backend/internal/config"
	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	dynamostore "worldgraph-backend/internal/repository/dynamodb"
	"worldgraph-backend/internal/repository/memory"
	"worldgraph-backend/internal/service/enrich"
	"worldgraph-backend/internal/service/explore"
	"worldgraph-backend/internal/service/ledger"
	"worldgraph-backend/pkg/auth"
	"worldgraph-backend/pkg/errors"
	"worldgraph-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repository repository.Repository
	Ledger     *ledger.Service
	Explore    *explore.Service
	Enrich     *enrich.Service
	Validator  *auth.JWTValidator // nil when authentication is disabled
	Metrics    *observability.Collector
}

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	metrics := ProvideMetrics(cfg)

	repo, err := ProvideRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	validator, err := ProvideJWTValidator(cfg)
	if err != nil {
		return nil, err
	}
	if validator == nil {
		if err := seedDevUser(ctx, repo); err != nil {
			return nil, err
		}
	}

	ledgerSvc := ledger.NewService(repo, cfg.StatusRules, logger, metrics)
	exploreSvc := explore.NewService(repo, logger, metrics)
	enrichSvc := enrich.NewService(repo, ProvideSummaryFetcher(cfg, logger, metrics), logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
		Ledger:     ledgerSvc,
		Explore:    exploreSvc,
		Enrich:     enrichSvc,
		Validator:  validator,
		Metrics:    metrics,
	}, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideMetrics creates the metrics collector, or nil when disabled.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideRepository creates the configured store backend.
func ProvideRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repository, error) {
	switch cfg.StoreDriver {
	case "dynamodb":
		client, err := ProvideDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return dynamostore.NewStore(client, cfg.DynamoDBTable, cfg.GSI1IndexName, cfg.GSI2IndexName, logger), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, errors.NewInternalError("unknown store driver: " + cfg.StoreDriver)
	}
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(ctx context.Context, cfg *config.Config) (*awsdynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load AWS configuration")
	}
	return awsdynamodb.NewFromConfig(awsCfg), nil
}

// ProvideJWTValidator creates the token validator, or nil when auth is off.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideSummaryFetcher creates the enrichment client, or nil when disabled.
func ProvideSummaryFetcher(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) enrich.SummaryFetcher {
	if !cfg.EnrichmentEnabled {
		return nil
	}
	clientCfg := enrich.DefaultClientConfig()
	if cfg.EnrichmentBaseURL != "" {
		clientCfg.BaseURL = cfg.EnrichmentBaseURL
	}
	if cfg.EnrichmentUserAgent != "" {
		clientCfg.UserAgent = cfg.EnrichmentUserAgent
	}
	return enrich.NewClient(clientCfg, logger, metrics)
}

// seedDevUser guarantees the fallback identity injected by the auth
// middleware exists as a voter with moderator weight.
func seedDevUser(ctx context.Context, repo repository.Repository) error {
	if _, err := repo.FindUser(ctx, middleware.DevUserID); err == nil {
		return nil
	}
	return repo.UpsertUser(ctx, &domain.User{
		ID:          middleware.DevUserID,
		DisplayName: "Dev User",
		Role:        domain.RoleMod,
		CreatedAt:   time.Now().UTC(),
	})
}
