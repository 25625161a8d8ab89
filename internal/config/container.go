package config

import (
	"fmt"

	"court-order-server/internal/domain"
	"court-order-server/internal/engine"
	"court-order-server/internal/service"
	"court-order-server/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// Container holds all application dependencies
type Container struct {
	Config           domain.Config
	Logger           domain.Logger
	Validator        *validator.Validate
	Engine           domain.Engine
	DocumentPipeline domain.DocumentPipeline
	QAService        domain.QueryService
	ChatService      domain.ChatService
	LegalAssistant   domain.LegalAssistantService
}

// NewContainer creates a new dependency injection container
func NewContainer(config domain.Config) (*Container, error) {
	appLogger := logger.NewLogger(config.GetLogLevel(), config.GetLogFormat())

	outputValidator, err := engine.NewOutputValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to compile engine output schemas: %w", err)
	}
	validate := validator.New()

	gateway := engine.NewProcessGateway(appLogger)
	pipeline := service.NewPipeline(
		gateway,
		service.NewStager(config.GetStagingDir(), appLogger),
		service.NewNormalizer(outputValidator, config.GetLenientEngineJSON(), appLogger),
		service.NewPDFProbe(appLogger),
		validate,
		config,
		appLogger,
	)

	return &Container{
		Config:           config,
		Logger:           appLogger,
		Validator:        validate,
		Engine:           gateway,
		DocumentPipeline: pipeline,
		QAService:        service.NewQAService(service.NewQueryEngine(), validate, appLogger),
		ChatService:      service.NewChatRouter(gateway, outputValidator, config, appLogger),
		LegalAssistant:   service.NewLegalAssistant(appLogger),
	}, nil
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
