// Command server runs the AgriTrust HTTP backend: producer document intake
// and AI validation, on-chain reputation, automatic micropayment rules, agent
// wallets, and the supply-chain lot ledger.
//
// Configuration comes from the environment (a local .env is honored in dev);
// see internal/config for every knob and its default.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/docs"
	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/config"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
	httpapi "github.com/agritrust/go-agritrust-backend/internal/http"
	"github.com/agritrust/go-agritrust-backend/internal/http/handlers"
	"github.com/agritrust/go-agritrust-backend/internal/llm"
	"github.com/agritrust/go-agritrust-backend/internal/observability"
	"github.com/agritrust/go-agritrust-backend/internal/repo"
	"github.com/agritrust/go-agritrust-backend/internal/services"
	"github.com/agritrust/go-agritrust-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=…".
var version = "dev"

// ruleRepoShim adapts the repository free functions to the services.RuleRepo
// interface expected by the AutoPayService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type ruleRepoShim struct{}

func (ruleRepoShim) CreateRule(ctx context.Context, db *gorm.DB, r *domain.AutoPayRule) error {
	return repo.CreateRule(ctx, db, r)
}

func (ruleRepoShim) GetRule(ctx context.Context, db *gorm.DB, id string) (*domain.AutoPayRule, error) {
	return repo.GetRule(ctx, db, id)
}

func (ruleRepoShim) UpdateRuleFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.AutoPayRule, error) {
	return repo.UpdateRuleFields(ctx, db, id, fields)
}

func (ruleRepoShim) DeleteRule(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.DeleteRule(ctx, db, id)
}

func (ruleRepoShim) ListRules(ctx context.Context, db *gorm.DB) ([]domain.AutoPayRule, error) {
	return repo.ListRules(ctx, db)
}

func (ruleRepoShim) ListRulesByFarmer(ctx context.Context, db *gorm.DB, farmer string) ([]domain.AutoPayRule, error) {
	return repo.ListRulesByFarmer(ctx, db, farmer)
}

func (ruleRepoShim) ListActiveRules(ctx context.Context, db *gorm.DB) ([]domain.AutoPayRule, error) {
	return repo.ListActiveRules(ctx, db)
}

func (ruleRepoShim) MarkExecuted(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return repo.MarkExecuted(ctx, db, id, at)
}

func (ruleRepoShim) GetRuleStats(ctx context.Context, db *gorm.DB) (repo.RuleStats, error) {
	return repo.GetRuleStats(ctx, db)
}

// documentRepoShim proxies services.DocumentRepo to the repo package.
type documentRepoShim struct{}

func (documentRepoShim) CreateDocument(ctx context.Context, db *gorm.DB, d *domain.Document) error {
	return repo.CreateDocument(ctx, db, d)
}

func (documentRepoShim) ListDocumentsByFarmer(ctx context.Context, db *gorm.DB, farmer string, offset, limit int) ([]domain.Document, int64, error) {
	return repo.ListDocumentsByFarmer(ctx, db, farmer, offset, limit)
}

// paymentRepoShim proxies services.PaymentRepo to the repo package.
type paymentRepoShim struct{}

func (paymentRepoShim) CreatePayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return repo.CreatePayment(ctx, db, p)
}

func (paymentRepoShim) ListPaymentsByFarmer(ctx context.Context, db *gorm.DB, farmer string, offset, limit int) ([]domain.Payment, int64, error) {
	return repo.ListPaymentsByFarmer(ctx, db, farmer, offset, limit)
}

// lotRepoShim proxies services.LotRepo to the repo package.
type lotRepoShim struct{}

func (lotRepoShim) CreateLotEvent(ctx context.Context, db *gorm.DB, e *domain.LotEvent) error {
	return repo.CreateLotEvent(ctx, db, e)
}

func (lotRepoShim) ListLotEvents(ctx context.Context, db *gorm.DB, lotID string) ([]domain.LotEvent, error) {
	return repo.ListLotEvents(ctx, db, lotID)
}

// @title        AgriTrust Backend API
// @version      1.0
// @description  Agricultural trust platform: document verification, reputation, automatic micropayments, and supply-chain lot anchoring on Polygon.
// @BasePath     /api/v1
func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting agritrust backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	// Storage.
	db, err := repo.OpenSQLite(cfg.DBPath, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Chain collaborators. The client starts read-only when no key is set;
	// contract bindings stay nil when no address is configured.
	client, err := chain.Dial(ctx, cfg.Chain)
	if err != nil {
		log.Fatal().Err(err).Msg("dial chain rpc")
	}
	defer client.Close()

	rep, err := chain.NewReputation(client, cfg.Chain.ContractAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("bind reputation contract")
	}
	exec, err := chain.NewExecutor(client, cfg.Chain.ExecutorAddress, cfg.Chain.EVVMID)
	if err != nil {
		log.Fatal().Err(err).Msg("bind evvm executor")
	}

	analyzer := llm.New(cfg.LLM)

	// Services. A nil *Reputation must stay a nil interface so services can
	// report the contract as unconfigured.
	var recorder services.PaymentRecorder
	var registrar services.DocumentRegistrar
	var farmerContract services.FarmerContract
	var farmerReader services.FarmerReader
	var verifLogger services.VerificationLogger
	if rep != nil {
		recorder = rep
		registrar = rep
		farmerContract = rep
		farmerReader = rep
		verifLogger = rep
	}
	// Lot anchoring needs a signer; without one the lot API reports 503
	// instead of failing on every transact.
	var lotExec services.LotExecutor
	if exec != nil && client.IsConfigured() {
		lotExec = exec
	}

	paymentSvc := services.NewPaymentService(db, paymentRepoShim{}, client, recorder)
	autopaySvc := services.NewAutoPayService(db, ruleRepoShim{}, paymentSvc)
	documentSvc := services.NewDocumentService(db, documentRepoShim{}, registrar, cfg.UploadDir, cfg.MaxUploadBytes, autopaySvc)
	verificationSvc := services.NewVerificationService(farmerReader, verifLogger, analyzer, paymentSvc, autopaySvc)
	farmerSvc := services.NewFarmerService(farmerContract, autopaySvc)
	reportSvc := services.NewReportService(farmerReader, paymentSvc)
	walletSvc := services.NewWalletService(client, cfg.Chain, cfg.Agents)
	lotSvc := services.NewLotService(db, lotRepoShim{}, lotExec)

	h := handlers.New(autopaySvc, paymentSvc, documentSvc, verificationSvc, farmerSvc, reportSvc, walletSvc, lotSvc, cfg.MaxUploadBytes, cfg.IdempotencyTTL)

	// Transport.
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version
	httpapi.RegisterRoutes(engine, db, h, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
