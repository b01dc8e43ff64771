// servers/echo/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/mwiater/framebench/internal/echo"
	"github.com/mwiater/framebench/internal/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Named("echo-server").Error("responder failed", zap.Error(err))
		_ = logging.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	r := echo.New(cfg.Endpoint())
	logging.Named("echo-server").Info("echo server config",
		zap.String("endpoint", r.Endpoint()),
		zap.String("logFile", cfg.LogFile),
	)
	return r.Serve(ctx)
}

type Config struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	LogFile string `yaml:"log_file"`
}

// Endpoint is the bind address. An empty host binds every interface.
func (c Config) Endpoint() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = "*"
	}
	return fmt.Sprintf("tcp://%s:%d", host, c.Port)
}

var (
	configOnce sync.Once
	configVal  *Config
	configErr  error
)

func loadConfig() (*Config, error) {
	configOnce.Do(func() {
		configVal, configErr = loadConfigFrom(filepath.Join("servers", "echo", "echo.yml"))
	})
	return configVal, configErr
}

func loadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		cfg.Port = 5555
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}
