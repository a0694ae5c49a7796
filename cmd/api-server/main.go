package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nregahub/internal/district"
	"nregahub/internal/feed"
	"nregahub/internal/stats"
	"nregahub/pkg/database"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start the TCP feed first (so you notice binding errors early)
	hub := feed.NewHub()
	router.GET("/ws", feed.WSHandler(hub))
	tcpSrv := feed.NewServer(":7070", hub)

	districtRepo := district.NewRepo(db)
	statsRepo := stats.NewRepo(db)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		hubStats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": hubStats.TCPClients,
				"ws_clients":  hubStats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": hubStats.TCPClients,
			"ws_clients":  hubStats.WSClients,
		})
	})

	// Store-wide coverage: total districts, districts with data, per-state split
	router.GET("/health/data", func(c *gin.Context) {
		ctx := c.Request.Context()

		total, err := districtRepo.Count(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
			return
		}
		withData, err := statsRepo.CountDistrictsWithData(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
			return
		}
		byState, err := statsRepo.CoverageByState(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "coverage failed"})
			return
		}

		coverage := 0.0
		if total > 0 {
			coverage = float64(withData) / float64(total)
		}
		c.JSON(http.StatusOK, gin.H{
			"total_districts":     total,
			"districts_with_data": withData,
			"coverage":            coverage,
			"by_state":            byState,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	districtHandler := district.NewHandler(districtRepo)
	districtGroup := router.Group("/districts")
	districtHandler.RegisterRoutes(districtGroup)

	statsHandler := stats.NewHandler(statsRepo, districtRepo)
	statsHandler.RegisterRoutes(districtGroup)

	httpSrv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("HTTP API server listening on :8080")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
