package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/content"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/deploy"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/payment"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/slug"
	"github.com/websimple-ai/websimple-backend/internal/application/processors"
	"github.com/websimple-ai/websimple-backend/internal/application/query"
	ai "github.com/websimple-ai/websimple-backend/internal/infra/client/openai"
	infraDB "github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/compile"
	"github.com/websimple-ai/websimple-backend/internal/infra/publish"
	"github.com/websimple-ai/websimple-backend/internal/infra/storage"
	"github.com/websimple-ai/websimple-backend/internal/presentation/rest"
	"github.com/websimple-ai/websimple-backend/internal/presentation/scheduler"
	"github.com/websimple-ai/websimple-backend/pkg/db"
	"github.com/websimple-ai/websimple-backend/pkg/env"
)

func Init() {
	env.Load()

	// DB
	dbConfig := db.NewConfig()
	pool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	if err := infraDB.Migrate(dbConfig.GetDSN()); err != nil {
		log.Panicf("failed to run migrations: %v", err)
	}
	uowFactory := db.NewUoWFactory(pool)

	// Configs
	slugConfig := slug.NewSlugConfig()
	paymentConfig := payment.NewPaymentConfig()
	wranglerConfig := publish.NewWranglerConfig()
	workerConfig := scheduler.NewDeployWorkerConfig()
	cleanupConfig := scheduler.NewCleanupConfig()

	// AWS
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Panic("can't load aws config", err)
	}
	artifacts := storage.NewStorage(cfg)

	compiler, err := compile.NewCompiler()
	if err != nil {
		log.Panicf("failed to load templates: %v", err)
	}
	publisher := publish.NewWranglerPublisher(wranglerConfig)
	aiClient := ai.NewOpenAIClient(ai.NewOpenAIConfig())

	handlers := &application.Handlers{
		CheckSlug:         slug.NewCheckSlug(slugConfig, pool),
		ExtendReservation: slug.NewExtendReservation(pool),
		SuggestSlugs:      query.NewSuggestSlugs(slugConfig, pool),
		PreviewContent:    query.NewPreviewContent(pool),
		GenerateContent:   content.NewGenerateContent(pool, aiClient),
		EnhanceContent:    content.NewEnhanceContent(pool, aiClient),
		Checkout:          payment.NewCheckout(paymentConfig, pool),
		VerifySession:     payment.NewVerifySession(paymentConfig),
		Webhook:           payment.NewWebhook(uowFactory, paymentConfig),
		EnqueueDeploy:     deploy.NewEnqueueDeploy(pool),
		RetryDeploys:      deploy.NewRetryDeploys(pool),
		ReleaseStale:      deploy.NewReleaseStale(pool),
	}
	handler := rest.NewServer(handlers)
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     env.GetEnv("CLIENT_URL", "http://localhost:3000"),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowCredentials: true,
	}))
	rest.RegisterHandlers(app, handler)

	deployWorker := scheduler.NewDeployWorker(
		processors.NewDeploySite(pool, compiler, publisher, artifacts),
		pool,
		workerConfig,
	)
	go deployWorker.Start()

	cleanup := scheduler.NewCleanupScheduler(pool, cleanupConfig)
	go cleanup.Start()

	go func() {
		if err := app.Listen(":" + env.GetEnv("PORT", "8080")); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	deployWorker.Stop()
	cleanup.Stop()

	fmt.Println("Running cleanup tasks...")

	uowFactory.Pool.Close()
	fmt.Println("Fiber was successfully shutdown.")
}
