package cli

import (
	"fmt"

	"mockmate/internal/ai"
	"mockmate/internal/config"
	"mockmate/internal/interview"
	"mockmate/internal/prompt"
	"mockmate/internal/resume"
	"mockmate/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock interview HTTP server",
	Long: `Start an HTTP server that provides REST API endpoints for running mock
interviews.

Available endpoints:
- POST /api/start-interview: Start a session, optionally with a resume upload
- POST /api/submit-answer: Submit an answer and get the next question
- POST /api/end-interview: End the interview and get the feedback scorecard
- GET /api/session/{id}: Fetch a session snapshot
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
	bindFlag("server.tls.cafile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	gateway, err := ai.NewGateway(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create generation gateway: %w", err)
	}

	catalog := prompt.NewCatalog()
	if cfg.Prompts.FocusCatalogFile != "" {
		if err := catalog.LoadFile(cfg.Prompts.FocusCatalogFile); err != nil {
			return fmt.Errorf("failed to load focus catalog: %w", err)
		}
	}
	composer := prompt.NewComposer(catalog, cfg.Prompts.InterviewerName, cfg.Prompts.CoachName)

	digester := resume.NewDigester(gateway.Resume, logger)
	synthesizer := interview.NewSynthesizer(gateway.Feedback, composer, logger)
	orchestrator := interview.NewOrchestrator(
		interview.NewMemoryStore(),
		composer,
		gateway.Question,
		digester,
		synthesizer,
		nil, // metrics are wired by the server once observability is up
		logger,
	)

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, gateway, orchestrator, logger).Start()
}
