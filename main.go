package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/finlens/backend/src/config"
	"github.com/username/finlens/backend/src/database"
	"github.com/username/finlens/backend/src/handlers"
	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/model"
	"github.com/username/finlens/backend/src/parsers/aggregator"
	"github.com/username/finlens/backend/src/parsers/bankcsv"
	"github.com/username/finlens/backend/src/processors"
	"github.com/username/finlens/backend/src/security"
	"github.com/username/finlens/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("FinLens backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	summaryCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)

	classifier := processors.NewClassifier()
	csvParser := bankcsv.NewParser(classifier, config.Cfg.DefaultCurrency)
	aggregatorParser := aggregator.NewParser(classifier, config.Cfg.DefaultCurrency)

	transactionStore := model.NewTransactionStore(database.DB)
	consentStore := model.NewConsentStore(database.DB)

	consentService := services.NewConsentService(consentStore, services.ConsentConfig{
		Validity:     config.Cfg.ConsentValidity,
		PurposeCode:  config.Cfg.ConsentPurposeCode,
		ProviderID:   config.Cfg.DefaultProviderID,
		RedirectBase: config.Cfg.ConsentRedirectBase,
	})

	aggregatorClient := services.NewAggregatorClient(services.AggregatorClientConfig{
		BaseURL:      config.Cfg.AggregatorBaseURL,
		ClientID:     config.Cfg.AggregatorClientID,
		ClientSecret: config.Cfg.AggregatorClientSecret,
		TokenURL:     config.Cfg.AggregatorTokenURL,
		Timeout:      config.Cfg.AggregatorTimeout,
	})

	ingestionService := services.NewIngestionService(
		csvParser,
		aggregatorParser,
		transactionStore,
		consentService,
		aggregatorClient,
		summaryCache,
	)

	userHandler := handlers.NewUserHandler(authService)
	uploadHandler := handlers.NewUploadHandler(ingestionService)
	consentHandler := handlers.NewConsentHandler(consentService, ingestionService)
	txHandler := handlers.NewTransactionHandler(ingestionService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "FinLens Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", userHandler.RegisterUserHandler)
			r.Post("/auth/login", userHandler.LoginUserHandler)

			// Status callbacks arrive from the aggregator gateway, not a user session.
			r.Post("/consents/callback", consentHandler.HandleConsentCallback)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(userHandler.AuthMiddleware)

			r.Post("/upload", uploadHandler.HandleUpload)

			r.Get("/consents", consentHandler.HandleListConsents)
			r.Post("/consents", consentHandler.HandleInitiateConsent)
			r.Get("/consents/{consentID}/history", consentHandler.HandleConsentHistory)
			r.Post("/consents/{consentID}/revoke", consentHandler.HandleRevokeConsent)
			r.Post("/consents/{consentID}/fetch", consentHandler.HandleFetchFinancialData)

			r.Get("/transactions", txHandler.HandleGetTransactions)
			r.Get("/transactions/summary", txHandler.HandleGetSummary)
		})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
