package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/config"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/geocode"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/geolocation"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/ledger"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.NewConfig()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.WithFields(logrus.Fields{
		"ledger_rpc":      cfg.LedgerRPCURL,
		"feedback_method": cfg.LedgerFeedbackMethod,
		"media_gateway":   cfg.MediaGatewaySuffix,
		"listen_addr":     cfg.ListenAddr,
		"listen_port":     cfg.ListenPort,
	}).Info("Tip Service starting")

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	ledgerClient := ledger.NewClient(
		cfg.LedgerRPCURL,
		cfg.LedgerFeedbackMethod,
		time.Duration(cfg.LedgerTimeout)*time.Second,
		logger,
	)

	pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
	if err := ledgerClient.Ping(pingCtx); err != nil {
		logger.WithError(err).Warn("Ledger gateway not reachable at startup; feedback writes will fail until it is")
	}
	pingCancel()

	geocodeTimeout := time.Duration(cfg.GeocodeTimeout) * time.Second
	cities := geocode.NewOpenWeatherClient(cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, geocodeTimeout, logger)
	regions := geocode.NewPositionStackClient(cfg.PositionStackBaseURL, cfg.PositionStackAPIKey, geocodeTimeout, logger)

	centers := geolocation.NewCenterResolver(logger, geolocation.ResolverConfig{
		GeoLiteDBPath:      cfg.GeoLiteDBPath,
		GeoLiteDownloadURL: cfg.GeoLiteDownloadURL,
		AutoDownload:       cfg.GeoLiteAutoDownload,
	})

	// Create HTTP server
	httpServer := server.NewServer(server.Dependencies{
		Ledger:             ledgerClient,
		Cities:             cities,
		Regions:            regions,
		Centers:            centers,
		MediaGateway:       cfg.MediaGatewaySuffix,
		ListenAddr:         cfg.ListenAddr,
		ListenPort:         cfg.ListenPort,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WSClientBufferSize: cfg.WSClientBufferSize,
	}, logger)
	httpServer.StartSweeper(appCtx, time.Duration(cfg.SessionIdleTTL)*time.Second)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP Server started")
		if err := httpServer.Start(appCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")
	appCancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error stopping HTTP server")
	}

	if err := centers.Close(); err != nil {
		logger.WithError(err).Error("Error closing GeoLite database")
	}

	if err := ledgerClient.Close(); err != nil {
		logger.WithError(err).Error("Error closing ledger client")
	}

	logger.Info("Service shutdown complete")
}
