// internal/server/config.go
package server

import (
	"time"

	"market-mentor/internal/common/config"
)

type Config struct {
	Address         string
	PublicDir       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TermsPath       string
	PrivacyPath     string
	AssistantName   string
	Retailer        string
	Environment     string
}

func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Address:         cfg.Server.Address,
		PublicDir:       cfg.Server.PublicDir,
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		ShutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
		TermsPath:       cfg.Legal.TermsPath,
		PrivacyPath:     cfg.Legal.PrivacyPath,
		AssistantName:   cfg.Assistant.Name,
		Retailer:        cfg.Assistant.Retailer,
		Environment:     cfg.App.Environment,
	}
}
