package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"mahabote-web/internal/audit"
	"mahabote-web/internal/auth"
	"mahabote-web/internal/i18n"
	"mahabote-web/internal/observability/metrics"
	paymentapp "mahabote-web/internal/payment/application"
	paymentrepo "mahabote-web/internal/payment/infrastructure/postgres"
	"mahabote-web/internal/payment/infrastructure/slipok"
	paymenthttp "mahabote-web/internal/payment/interfaces/http"
	readingapp "mahabote-web/internal/reading/application"
	reading "mahabote-web/internal/reading/domain"
	"mahabote-web/internal/reading/infrastructure/gemini"
	readingrepo "mahabote-web/internal/reading/infrastructure/postgres"
	readinghttp "mahabote-web/internal/reading/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	messages, err := i18n.Load()
	if err != nil {
		logger.Fatalf("i18n error: %v", err)
	}

	prompts, err := gemini.LoadPrompts(cfg.PromptTemplates)
	if err != nil {
		logger.Fatalf("prompts error: %v", err)
	}
	generator, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, prompts, logger)
	if err != nil {
		logger.Fatalf("gemini client error: %v", err)
	}

	readingsRepo := readingrepo.NewReadingRepository(db)
	readingService, err := readingapp.NewReadingService(generator, readingsRepo, logger)
	if err != nil {
		logger.Fatalf("reading service error: %v", err)
	}
	chatService, err := readingapp.NewChatService(generator, readingsRepo, logger)
	if err != nil {
		logger.Fatalf("chat service error: %v", err)
	}

	slipOpts := []slipok.Option{slipok.WithTimeout(cfg.SlipOKTimeout)}
	if cfg.SlipOKBaseURL != "" {
		slipOpts = append(slipOpts, slipok.WithBaseURL(cfg.SlipOKBaseURL))
	}
	verifier := slipok.NewClient(cfg.SlipOKBranchID, cfg.SlipOKAPIKey, logger, slipOpts...)

	sessionRepo := paymentrepo.NewSessionRepository(db)
	attemptRepo := paymentrepo.NewAttemptRepository(db)
	gateService, err := paymentapp.NewGateService(sessionRepo, attemptRepo, verifier, cfg.PromptPayTarget, paymentapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("gate service error: %v", err)
	}

	readingHandler, err := readinghttp.NewHandler(readingService, reading.Language(cfg.DefaultLanguage))
	if err != nil {
		logger.Fatalf("reading handler error: %v", err)
	}
	paymentHandler, err := paymenthttp.NewHandler(gateService, chatService, messages, auditRepo, []byte(cfg.JWTSecret), cfg.SessionTTL)
	if err != nil {
		logger.Fatalf("payment handler error: %v", err)
	}
	exportHandler, err := paymenthttp.NewExportHandler(gateService)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", func() {
		expired, err := gateService.ExpireStalePayments(context.Background(), cfg.PaymentExpiry)
		if err != nil {
			logger.Printf("payment expiry error: %v", err)
			return
		}
		if expired > 0 {
			logger.Printf("expired %d stale payment sessions", expired)
		}
	}); err != nil {
		logger.Fatalf("scheduler error: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/mahabote/calculate", readingHandler)
	mux.Handle("/api/v1/horoscope", readingHandler)
	mux.Handle("/api/v1/palm", readingHandler)
	mux.Handle("/api/v1/readings/", readingHandler)
	mux.Handle("/api/v1/sessions", paymentHandler)
	mux.Handle("/api/v1/chat/payment", paymentHandler)
	mux.Handle("/api/v1/chat/slip", paymentHandler)
	mux.Handle("/api/v1/chat/messages", paymentHandler)
	mux.Handle("/api/v1/exports/payments.xlsx", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL     string
	HTTPAddr        string
	GeminiAPIKey    string
	GeminiModel     string
	SlipOKBranchID  string
	SlipOKAPIKey    string
	SlipOKBaseURL   string
	SlipOKTimeout   time.Duration
	PromptPayTarget string
	JWTSecret       string
	SessionTTL      time.Duration
	PaymentExpiry   time.Duration
	PromptTemplates string
	DefaultLanguage string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		GeminiAPIKey:    getenvDefault("GEMINI_API_KEY", ""),
		GeminiModel:     getenvDefault("GEMINI_MODEL", ""),
		SlipOKBranchID:  getenvDefault("SLIPOK_BRANCH_ID", ""),
		SlipOKAPIKey:    getenvDefault("SLIPOK_API_KEY", ""),
		SlipOKBaseURL:   getenvDefault("SLIPOK_BASE_URL", ""),
		SlipOKTimeout:   getenvDuration("SLIPOK_TIMEOUT", 15*time.Second),
		PromptPayTarget: getenvDefault("PROMPTPAY_TARGET_ID", ""),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SessionTTL:      getenvDuration("SESSION_TTL", 24*time.Hour),
		PaymentExpiry:   getenvDuration("PAYMENT_EXPIRY", 30*time.Minute),
		PromptTemplates: getenvDefault("PROMPT_TEMPLATES", ""),
		DefaultLanguage: getenvDefault("DEFAULT_LANGUAGE", "my"),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	if cfg.SlipOKBranchID == "" || cfg.SlipOKAPIKey == "" {
		log.Fatal("SLIPOK_BRANCH_ID and SLIPOK_API_KEY are required")
	}
	if cfg.PromptPayTarget == "" {
		log.Fatal("PROMPTPAY_TARGET_ID is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
