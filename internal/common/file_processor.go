package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mockmate/internal/errors"
	"mockmate/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFileBytes reads raw content from a file with proper error handling.
// Resume files may be binary (PDF), so bytes are the base currency.
func (fp *FileProcessor) ReadFileBytes(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// ReadFile reads content from a file as a string
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	content, err := fp.ReadFileBytes(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadResume validates a resume file and returns its raw bytes.
// PDF files pass through untouched; other files get a warning when they
// don't look like text.
func (fp *FileProcessor) ValidateAndReadResume(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsPDFFile(filename) && !utils.IsTextFile(filename) {
		if fp.logger != nil {
			fp.logger.Warn("File may not be a resume document",
				"filename", filename)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s may not be a resume document\n", filename)
		}
	}

	content, err := fp.ReadFileBytes(filename)
	if err != nil {
		return nil, err
	}
	if fp.logger != nil {
		fp.logger.Debug("Resume file read",
			"filename", filename,
			"size", utils.FormatFileSize(int64(len(content))))
	}
	return content, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
