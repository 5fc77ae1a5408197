package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shopmindai/voicematch/internal/admin"
	"github.com/shopmindai/voicematch/internal/adapter"
	"github.com/shopmindai/voicematch/internal/cache"
	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/config"
	"github.com/shopmindai/voicematch/internal/httpmw"
	"github.com/shopmindai/voicematch/internal/logging"
	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchtxn"
	"github.com/shopmindai/voicematch/internal/metrics"
	"github.com/shopmindai/voicematch/internal/scheduler"
	"github.com/shopmindai/voicematch/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook, scheduler, and HTTP surface",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(level, cfg.LogFilePath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseURL, cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return err
	}
	defer db.Close()

	lock, err := store.AcquireAdvisoryLock(ctx, cfg.DatabaseURL, cfg.AdvisoryLockKey)
	if err != nil {
		return err
	}
	defer lock.Release(context.Background())

	eng, err := matchtxn.NewEngine(ctx, db)
	if err != nil {
		return err
	}

	rdb := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()

	hub := admin.NewHub(log)

	bot := adapter.NewTelegramClient(cfg.BotToken)
	dispatcher := adapter.NewDispatcher(bot, rdb, log, cfg.WorkerPoolSize)

	sink := func(ctx context.Context, msgs []matcher.OutboundMessage) {
		dispatcher.Dispatch(ctx, msgs)
		for _, m := range msgs {
			if m.Kind == matcher.KindFoundPartner {
				metrics.MatchesTotal.Inc()
			}
			hub.Publish(admin.Event{
				Kind:      m.Kind.String(),
				Uid:       m.Uid,
				Timestamp: time.Now(),
			})
		}
	}

	driver := scheduler.New(eng, sink, log, clock.Now)
	webhook := adapter.NewWebhookHandler(driver, dispatcher, log, cfg.InboundRateLimit, cfg.InboundRateBurst)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestID())
	router.Use(metrics.GinMiddleware())

	router.POST("/webhook", webhook.Handle)

	router.GET("/admin/live", admin.CORS(cfg.AdminAllowedOrigins), hub.ServeWS)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "postgres unavailable"})
			return
		}
		if err := rdb.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	hubDone := make(chan struct{})
	g.Go(func() error {
		hub.Run(hubDone)
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("voicematchd: starting HTTP server")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("voicematchd: starting scheduler driver")
		return driver.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		close(hubDone)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.WithError(err).Error("voicematchd: exited with error")
		return err
	}
	log.Info("voicematchd: shutdown complete")
	return nil
}
