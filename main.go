package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edgegate/api"
	"edgegate/fingerprint"
	"edgegate/gate"
	"edgegate/geo"
	"edgegate/limiter"
	"edgegate/logger"
	"edgegate/manager"
	"edgegate/middleware"
	"edgegate/risk"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		logger.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting EdgeGate", "listen_port", cfg.ListenPort, "geo_provider", cfg.GeoProviderURL)

	limiterCfg := limiter.Config{
		Window:        time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		MaxRequests:   cfg.RateLimit.MaxRequests,
		BlockDuration: time.Duration(cfg.RateLimit.BlockSeconds) * time.Second,
	}

	// Limiter state: local by default, Redis when configured so several
	// instances share one view of the windows and blocks.
	var store limiter.Store = limiter.NewMemoryStore(limiterCfg)
	if redisAddr := os.Getenv("EDGEGATE_REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("EDGEGATE_REDIS_PASSWORD"),
		})
		store = limiter.NewRedisStore(client, limiterCfg)
		logger.Info("Distributed limiter state initialized (Redis)", "addr", redisAddr)
	} else {
		logger.Info("In-memory limiter state initialized (local fallback)")
	}

	rl := limiter.New(store)
	geoClient := geo.NewClient(cfg.GeoProviderURL, cfg.GeoUpstreamRPS, cfg.GeoUpstreamBurst)
	riskScorer := risk.NewScorer(risk.DefaultLists())
	fpScorer := fingerprint.NewScorer(fingerprint.DefaultPatterns())

	pipeline := gate.NewPipeline(rl, geoClient, riskScorer)
	countryGate := gate.NewCountryGate(geoClient, cfg.GeoIPDBPath)
	defer countryGate.Close()

	assets := api.Assets{Root: cfg.AssetsDir}
	wechat := api.NewWeChatClient(cfg.WeChatAppID, cfg.WeChatSecret, "")
	chat := api.NewChatProxy(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel)

	mux := http.NewServeMux()

	// Gated routes
	mux.Handle("/api/ipCheck", gate.IPCheckHandler(pipeline))
	mux.Handle("/api/onlyAmerica", gate.CountryGateHandler(countryGate))
	mux.Handle("/api/onlyFingerprint", gate.FingerprintHandler(fpScorer))

	// Collaborator routes
	mux.Handle("/api/images", assets.Images())
	mux.Handle("/api/audio", assets.Audio())
	mux.Handle("/api/meego", api.MeegoHandler())
	mux.Handle("/api/openId", api.OpenIDHandler(wechat))
	mux.Handle("/api/deepseek", chat.Handler())

	// Terminology mock API
	mux.Handle("/yzy-api/terminology/list", api.TerminologyListHandler())
	mux.Handle("/yzy-api/terminology/data/list", api.TerminologyDataListHandler())
	mux.Handle("/yzy-api/terminology/data/update", api.TerminologyMutationHandler())
	mux.Handle("/yzy-api/terminology/data/delete", api.TerminologyMutationHandler())

	stack := middleware.SecurityHeaders(middleware.CORS(middleware.RequestID(mux)))

	// Metrics endpoint
	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics engine active", "port", cfg.MetricsPort)
		http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), metricsMux)
	}()

	// Management API (internal)
	go func() {
		mgmtMux := http.NewServeMux()
		manager.NewManagementAPI(rl).Register(mgmtMux)
		logger.Info("Management API active", "port", cfg.ManagePort)
		http.ListenAndServe(fmt.Sprintf(":%d", cfg.ManagePort), mgmtMux)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ListenPort),
		Handler:           stack,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // chat proxy streams long responses
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("EdgeGate active", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown logic
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	logger.Info("EdgeGate stopping...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Shutdown did not complete cleanly", "err", err)
	}
	logger.Info("Server stopped gracefully")
}
