package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/config"
	"github.com/ethosworks/ethos-engine/pkg/database"
	"github.com/ethosworks/ethos-engine/pkg/domain"
	"github.com/ethosworks/ethos-engine/pkg/llm"
	"github.com/ethosworks/ethos-engine/pkg/logging"
	"github.com/ethosworks/ethos-engine/pkg/models"
	"github.com/ethosworks/ethos-engine/pkg/repositories"
	"github.com/ethosworks/ethos-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	caseID := flag.String("case", "", "case id to synthesize (required)")
	domainCode := flag.String("domain", "", "domain code (default from config)")
	flag.Parse()

	if *caseID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *caseID, *domainCode); err != nil {
		logger.Fatal("Synthesis failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, caseID, domainCode string) error {
	ctx := context.Background()

	connStr := cfg.Database.ConnectionString()
	logger.Info("Connecting to entity store",
		zap.String("conn", logging.SanitizeConnectionString(connStr)))

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if domainCode == "" {
		domainCode = cfg.Domain.DefaultCode
	}
	domains := domain.NewCache(cfg.Domain.Dir, cfg.Domain.CacheSize)
	domainCfg, err := domains.Get(domainCode)
	if err != nil {
		return fmt.Errorf("load domain %q: %w", domainCode, err)
	}

	ai, err := llm.NewFromConfig(&cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("create inference client: %w", err)
	}
	if ai == nil {
		logger.Info("No AI endpoint configured, fallback branches disabled")
	}

	repo := repositories.NewCaseEntityRepository(db)
	synthesizer := services.NewSynthesizer(repo, domainCfg, ai, cfg.AI.MaxTokens, logger)

	result, err := synthesizer.SynthesizeWithProgress(ctx, caseID, func(event models.ProgressEvent) {
		if event.Error != "" {
			fmt.Printf("[%3d%%] %s: %s\n", event.Progress, event.Stage, event.Error)
			return
		}
		fmt.Printf("[%3d%%] %s\n", event.Progress, event.Stage)
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nCase %s (%s domain)\n", result.CaseID, domainCode)
	fmt.Printf("  decision points: %d\n", len(result.DecisionPoints))
	fmt.Printf("  arguments:       %d\n", len(result.Arguments))
	fmt.Printf("  validations:     %d\n", len(result.Validations))
	fmt.Printf("  used fallback:   %v\n", result.UsedLLMFallback)
	fmt.Printf("  used refinement: %v\n", result.UsedRefinement)
	for _, dp := range result.DecisionPoints {
		fmt.Printf("  %s: %s\n", dp.FocusID, dp.Description)
	}
	return nil
}
