package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"expense-ledger/internal/config"
	apphttp "expense-ledger/internal/http"
	"expense-ledger/internal/repository"
	"expense-ledger/internal/repository/jsonfile"
	"expense-ledger/internal/repository/sqlite"
	"expense-ledger/internal/service"
	"expense-ledger/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		expenseRepo repository.ExpenseRepository
		budgetRepo  repository.BudgetRepository
		userService service.UserService
		tokenSvc    *service.TokenService
	)

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
			logger.Fatalf("auth jwt secret is required")
		}

		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		defer db.Close()

		userRepo := sqlite.NewUserRepository(db)
		expenseRepo = sqlite.NewExpenseRepository(db)
		budgetRepo = sqlite.NewBudgetRepository(db)

		if err := userRepo.Init(ctx); err != nil {
			logger.Fatalf("init user repository: %v", err)
		}
		if err := expenseRepo.Init(ctx); err != nil {
			logger.Fatalf("init expense repository: %v", err)
		}
		if err := budgetRepo.Init(ctx); err != nil {
			logger.Fatalf("init budget repository: %v", err)
		}

		userService = service.NewUserService(userRepo)
		tokenSvc = service.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	case config.DriverJSONFile:
		store, err := jsonfile.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatalf("open ledger file: %v", err)
		}
		expenseRepo = store.Expenses()
		budgetRepo = store.Budgets()
		logger.Warn("running single-user prototype mode, authentication disabled")
	}

	ledgerService := service.NewLedgerService(expenseRepo, budgetRepo)

	archive, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		ledgerService,
		userService,
		tokenSvc,
		archive,
		cfg.Storage.Bucket,
		cfg.Storage.KeyPrefix,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStorage sets up the optional export archive. A missing bucket simply
// disables archival rather than failing startup.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving exports to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
