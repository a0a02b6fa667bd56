package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/option_ladder_bot/internal/domain"
	"github.com/vitos/option_ladder_bot/internal/infrastructure/logger"
	"github.com/vitos/option_ladder_bot/internal/infrastructure/storage"
	"github.com/vitos/option_ladder_bot/internal/infrastructure/stream"
	"github.com/vitos/option_ladder_bot/internal/infrastructure/venue"
	"github.com/vitos/option_ladder_bot/internal/usecase"
	"github.com/vitos/option_ladder_bot/internal/web"
)

type Config struct {
	Venue struct {
		ClientID     string `yaml:"client_id"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"venue"`
	Stream struct {
		MaxRetries       int `yaml:"max_retries"`
		ReconnectDelayMs int `yaml:"reconnect_delay_ms"`
		QueueSize        int `yaml:"queue_size"`
	} `yaml:"stream"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "bot.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}

	// 4. Venue session factories. Each strategy start builds its own REST
	// adapter and order stream from the current day's access token.
	newVenue := func(token string) domain.Venue {
		return venue.NewFyersAdapter(cfg.Venue.ClientID, token, cfg.Venue.RESTEndpoint)
	}
	newStream := func(token string) domain.OrderStream {
		return stream.NewManager(
			cfg.Venue.WSEndpoint,
			cfg.Venue.ClientID,
			token,
			cfg.Stream.MaxRetries,
			time.Duration(cfg.Stream.ReconnectDelayMs)*time.Millisecond,
			cfg.Stream.QueueSize,
			log,
		)
	}

	// 5. Per-strategy log files. Engine faults go to the strategy's own
	// stream, not to any HTTP caller.
	logDir := cfg.Logging.Dir
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Fatal("Failed to create log dir", zap.Error(err))
	}
	newEngineLogger := func(strategyID string) *zap.Logger {
		sl, err := logger.NewFileLogger(filepath.Join(logDir, strategyID+".log"), cfg.Logging.Level)
		if err != nil {
			log.Error("Failed to open strategy log file, using shared logger", zap.Error(err))
			return log.With(zap.String("strategy_id", strategyID))
		}
		return sl.With(zap.String("strategy_id", strategyID))
	}

	// 6. Init Services
	registry := usecase.NewRegistry(log)
	launcher := usecase.NewLauncher(store, store, store, store, registry, newVenue, newStream, newEngineLogger, log)

	// 7. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, launcher, log)

	// 8. Start Server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	registry.StopAll()
	server.Shutdown(context.Background())
}
