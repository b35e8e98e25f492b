package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/adapters/enhance"
	"github.com/vocalis-app/vocalis/adapters/memory"
	vocalismongo "github.com/vocalis-app/vocalis/adapters/mongo"
	"github.com/vocalis-app/vocalis/adapters/stt"
	"github.com/vocalis-app/vocalis/adapters/tts"
	"github.com/vocalis-app/vocalis/domain/repositories"
	"github.com/vocalis-app/vocalis/internal/api"
	"github.com/vocalis-app/vocalis/internal/auth"
	"github.com/vocalis-app/vocalis/internal/intake"
	"github.com/vocalis-app/vocalis/internal/notify"
	"github.com/vocalis-app/vocalis/usecase"
)

type config struct {
	port        string
	mongoURI    string
	mongoDB     string
	jwtSecret   string
	callbackURL string

	sttProvider     string
	googleProjectID string
	language        string
	fptAPIKey       string
	fptURL          string

	enhanceProvider string
	geminiAPIKey    string
	openAIAPIKey    string
	enhanceModel    string

	ttsEnabled      bool
	elevenLabsKey   string
	elevenLabsVoice string

	maxSyncBytes        int64
	maxSyncDuration     time.Duration
	confidenceThreshold float64
	recognizeTimeout    time.Duration
	jobSweepMaxAge      time.Duration
}

func loadConfig() config {
	return config{
		port:        envOr("PORT", "8080"),
		mongoURI:    os.Getenv("MONGODB_URI"),
		mongoDB:     envOr("MONGODB_DATABASE", "vocalis"),
		jwtSecret:   os.Getenv("JWT_SECRET"),
		callbackURL: os.Getenv("CALLBACK_URL"),

		sttProvider:     envOr("STT_PROVIDER", "google"),
		googleProjectID: os.Getenv("GOOGLE_PROJECT_ID"),
		language:        envOr("STT_LANGUAGE", "en-US"),
		fptAPIKey:       os.Getenv("FPT_API_KEY"),
		fptURL:          os.Getenv("FPT_API_URL"),

		enhanceProvider: envOr("ENHANCE_PROVIDER", "off"),
		geminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		openAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		enhanceModel:    os.Getenv("ENHANCE_MODEL"),

		ttsEnabled:      envBool("TTS_ENABLED", false),
		elevenLabsKey:   os.Getenv("ELEVEN_LABS_API_KEY"),
		elevenLabsVoice: os.Getenv("ELEVEN_LABS_VOICE_ID"),

		maxSyncBytes:        envInt64("ROUTE_MAX_SYNC_BYTES", intake.DefaultMaxSyncBytes),
		maxSyncDuration:     envSeconds("ROUTE_MAX_SYNC_SECONDS", intake.DefaultMaxSyncDuration),
		confidenceThreshold: envFloat("ENHANCE_CONFIDENCE_THRESHOLD", 0.9),
		recognizeTimeout:    envSeconds("RECOGNIZE_TIMEOUT_SECONDS", 55*time.Second),
		jobSweepMaxAge:      envHours("JOB_SWEEP_MAX_AGE_HOURS", 24*time.Hour),
	}
}

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := loadConfig()

	jwtService, err := auth.NewJWT(cfg.jwtSecret)
	if err != nil {
		logger.Fatal("JWT configuration invalid", zap.Error(err))
	}

	// Repositories: MongoDB when configured, in-memory otherwise so the
	// server still runs for local development.
	var vocabularyRepo repositories.VocabularyRepository
	var jobRepo repositories.JobRepository
	var mongoClient *vocalismongo.Client
	if cfg.mongoURI != "" {
		mongoClient, err = vocalismongo.NewClient(cfg.mongoURI, cfg.mongoDB, logger)
		if err != nil {
			logger.Fatal("MongoDB connection failed", zap.Error(err))
		}
		vocabularyRepo = vocalismongo.NewVocabularyRepository(mongoClient.Database)
		jobRepo = vocalismongo.NewJobRepository(mongoClient.Database)
	} else {
		logger.Warn("MONGODB_URI not set, using in-memory repositories")
		vocabularyRepo = memory.NewVocabularyRepository()
		jobRepo = memory.NewJobRepository()
	}

	ctx := context.Background()

	recognizer, err := stt.NewRecognizer(ctx, stt.Config{
		Provider:        cfg.sttProvider,
		GoogleProjectID: cfg.googleProjectID,
		Language:        cfg.language,
		FPTAPIKey:       cfg.fptAPIKey,
		FPTURL:          cfg.fptURL,
	}, logger)
	if err != nil {
		logger.Fatal("STT provider initialization failed", zap.Error(err))
	}

	enhancer, err := enhance.NewEnhancer(ctx, enhance.Config{
		Provider:     cfg.enhanceProvider,
		GeminiAPIKey: cfg.geminiAPIKey,
		OpenAIAPIKey: cfg.openAIAPIKey,
		Model:        cfg.enhanceModel,
	}, logger)
	if err != nil {
		logger.Fatal("Enhancement provider initialization failed", zap.Error(err))
	}

	var synthesizer repositories.SpeechSynthesizer
	if cfg.ttsEnabled {
		elevenLabs, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:  cfg.elevenLabsKey,
			VoiceID: cfg.elevenLabsVoice,
		}, logger)
		if err != nil {
			logger.Fatal("TTS initialization failed", zap.Error(err))
		}
		synthesizer = elevenLabs
	}

	// Usecase services
	syncer := usecase.NewVocabularySyncer(vocabularyRepo, recognizer, logger)
	vocabularyService := usecase.NewVocabularyService(vocabularyRepo, syncer, logger)
	correctionService := usecase.NewCorrectionService(vocabularyRepo, syncer, logger)

	hub := notify.NewHub(logger)
	router := intake.NewRouter(cfg.maxSyncBytes, cfg.maxSyncDuration)
	transcriptionService := usecase.NewTranscriptionService(
		recognizer, enhancer, synthesizer, jobRepo, router, hub,
		usecase.TranscriptionConfig{
			ConfidenceThreshold: cfg.confidenceThreshold,
			RecognizeTimeout:    cfg.recognizeTimeout,
			CallbackURL:         cfg.callbackURL,
		},
		logger,
	)

	// Orphan sweep: async jobs whose callback never arrived fail after
	// the cutoff instead of staying processing forever.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweepOrphanJobs(sweepCtx, jobRepo, cfg.jobSweepMaxAge, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handlers := api.NewHandlers(vocabularyService, transcriptionService, correctionService, hub, jwtService, logger)
	api.InitRoutes(e, handlers)

	go func() {
		if err := e.Start(":" + cfg.port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.port),
		zap.String("stt_provider", cfg.sttProvider),
		zap.String("enhance_provider", cfg.enhanceProvider),
		zap.Bool("tts_enabled", cfg.ttsEnabled))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		mongoClient.Close(shutdownCtx)
	}

	logger.Info("Server exited")
}

// sweepOrphanJobs periodically fails processing jobs older than maxAge.
func sweepOrphanJobs(ctx context.Context, jobs repositories.JobRepository, maxAge time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			failed, err := jobs.FailOlderThan(ctx, maxAge)
			if err != nil {
				logger.Error("Orphan job sweep failed", zap.Error(err))
				continue
			}
			if failed > 0 {
				logger.Warn("Orphan jobs marked failed", zap.Int64("count", failed))
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Second
}

func envHours(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Hour
}
