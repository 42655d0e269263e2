package common

import (
	"context"
	"fmt"

	"mockmate/internal/errors"
)

// FileOperationFunc runs an operation over a resume file's raw bytes.
type FileOperationFunc[Output any] func(ctx context.Context, filename string, data []byte) (Output, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(filename string, size int, cfg CommandConfig)

// RunFileCommand encapsulates the common logic for file-based CLI commands:
// validate and read the input, run the operation, format and write the result.
func RunFileCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	filename string,
	operation FileOperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	data, err := fileProcessor.ValidateAndReadResume(filename)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(filename, len(data), cmdConfig)
	}

	result, err := operation(ctx, filename, data)
	if err != nil {
		return fmt.Errorf("operation failed for %s: %w", filename, err)
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
