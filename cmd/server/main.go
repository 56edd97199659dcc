package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"posbilling/config"
	"posbilling/db"
	"posbilling/db/mongo"
	"posbilling/db/postgres"
	"posbilling/handlers"
	"posbilling/invoice"
	"posbilling/obs"
	"posbilling/repository"
	"posbilling/routes"
	"posbilling/session"
	"posbilling/utils"
)

type repos struct {
	bills     repository.BillRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	shop      repository.ShopRepository
	users     repository.UserRepository
}

func main() {
	// Load config from .env or environment
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("db_type", cfg.DBType).Msg("failed to open store")
	}
	defer closeDB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics("posbilling", reg)

	store, closeStore, err := sessionStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session store")
	}
	defer closeStore()

	files, err := fileStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up invoice storage")
	}

	svc := &session.Service{
		Products:  r.products,
		Customers: r.customers,
		Bills:     r.bills,
		Store:     store,
		Metrics:   metrics,
		Logger:    logger.With().Str("component", "session").Logger(),
	}

	h := routes.Handlers{
		User:     &handlers.UserHandler{Repo: r.users},
		Session:  &handlers.SessionHandler{Service: svc, Users: r.users},
		Bill:     &handlers.BillHandler{Repo: r.bills, Files: files},
		PDF:      &handlers.PDFHandler{Repo: repository.NewInvoiceRepository(r.bills, r.shop, r.customers, r.users), Renderer: invoice.ChromeRenderer{}, Files: files},
		Product:  &handlers.ProductHandler{Repo: r.products},
		Customer: &handlers.CustomerHandler{Repo: r.customers},
		Initial:  &handlers.InitialHandler{Repo: r.shop},
		Report:   &handlers.ReportHandler{Repo: r.bills},
	}
	router := routes.SetupRoutes(h, routes.Options{
		Logger:         logger.With().Str("component", "http").Logger(),
		Metrics:        metrics,
		Gatherer:       reg,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Str("db_type", cfg.DBType).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repos, func(), error) {
	switch db.DBType(cfg.DBType) {
	case db.Postgres:
		// Run migrations before serving
		if err := db.RunMigrations(cfg.PostgresURL, cfg.MigrationsPath); err != nil {
			return repos{}, nil, err
		}
		pg := postgres.NewPostgresDB(cfg.PostgresURL)
		if err := pg.Connect(ctx); err != nil {
			return repos{}, nil, err
		}
		return repos{
			bills:     repository.NewPostgresBillRepo(pg.Conn),
			products:  repository.NewPostgresProductRepo(pg.Conn),
			customers: repository.NewPostgresCustomerRepo(pg.Conn),
			shop:      repository.NewPostgresShopRepo(pg.Conn),
			users:     repository.NewPostgresUserRepo(pg.Conn),
		}, closer(pg), nil

	case db.Mongo:
		mg := mongo.NewMongoDB(cfg.MongoURL, cfg.MongoDatabase)
		if err := mg.Connect(ctx); err != nil {
			return repos{}, nil, err
		}
		return repos{
			bills:     repository.NewMongoBillRepo(mg.Database),
			products:  repository.NewMongoProductRepo(mg.Database),
			customers: repository.NewMongoCustomerRepo(mg.Database),
			shop:      repository.NewMongoShopRepo(mg.Database),
			users:     repository.NewMongoUserRepo(mg.Database),
		}, closer(mg), nil

	default:
		mem := repository.NewMemoryDB()
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return repos{bills: mem, products: mem, customers: mem, shop: mem, users: mem}, func() {}, nil
	}
}

func closer(conn db.DB) func() {
	return func() {
		if err := conn.Disconnect(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}
}

func sessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionStore != "redis" {
		return session.NewMemoryStore(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}

func fileStore(ctx context.Context, cfg *config.Config) (utils.FileStore, error) {
	if cfg.R2.Enabled() {
		return utils.NewR2Store(ctx, cfg.R2)
	}
	return utils.DiskStore{Dir: cfg.PDFDir}, nil
}
