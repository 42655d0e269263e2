package cli

import (
	"context"
	"fmt"

	"mockmate/internal/ai"
	"mockmate/internal/common"
	"mockmate/internal/resume"
	"mockmate/internal/types"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest [resume-file]",
	Short: "Summarize a resume for interview context",
	Long: `Digest a resume file into the short summary used to personalize
interview questions. PDF files are sent to the model for text extraction;
plain text files are read directly.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if digestConfig.OutputFormat == "" {
			digestConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(digestConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runDigest,
}

var (
	digestConfig common.CommandConfig
	digestRole   string
)

func init() {
	digestCmd.Flags().StringVarP(&digestConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	digestCmd.Flags().StringVar(&digestConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	digestCmd.Flags().StringVar(&digestRole, "role", "Software Engineer / SDE", "Target role the summary is tailored toward")

	// Add completion for format flag
	_ = digestCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	aiService, err := ai.NewService(cfg.GetResumeConfig(), "resume", logger)
	if err != nil {
		return fmt.Errorf("failed to create resume service: %w", err)
	}
	defer func() {
		if cerr := aiService.Provider.Close(); cerr != nil {
			logger.Warn("Failed to close resume service", "error", cerr)
		}
	}()

	digester := resume.NewDigester(aiService, logger)

	logDetails := func(filename string, size int, cfg common.CommandConfig) {
		logger.Info("Starting resume digestion",
			"filename", filename,
			"size_bytes", size,
			"role", digestRole,
			"output_format", cfg.OutputFormat)
	}

	digestOperation := func(ctx context.Context, filename string, data []byte) (types.DigestOutput, error) {
		summary := digester.Digest(ctx, data, filename, digestRole)
		return types.DigestOutput{
			Role:    digestRole,
			Summary: summary,
		}, nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		digestConfig,
		args[0],
		digestOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to digest resume: %w", err)
	}
	logger.Info("Resume digestion completed successfully")
	return nil
}
