package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Workbook validation failures. Callers match them with errors.Is.
var (
	ErrUnsupportedExtension = errors.New("unsupported workbook extension")
	ErrTemporaryFile        = errors.New("temporary office lock file")
	ErrEmptyFile            = errors.New("file is empty")
	ErrFileTooLarge         = errors.New("file exceeds maximum size")
)

// SupportedExtensions are the workbook formats the parser can decode
var SupportedExtensions = []string{".xlsx", ".xlsm", ".csv"}

// FileValidator checks workbook inputs and report outputs for the CLI and the
// upload endpoints.
type FileValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewFileValidator creates a validator. maxBytes <= 0 disables the size check.
func NewFileValidator(maxBytes int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// ValidateUpload checks an uploaded workbook's name and declared size
func (v *FileValidator) ValidateUpload(filename string, size int64) error {
	if err := v.checkName(filename); err != nil {
		return err
	}
	return v.checkSize(filename, size)
}

// ValidateWorkbookFile checks that path is a readable workbook within the size limit
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if err := v.checkName(path); err != nil {
		v.logger.Error("File is not a supported workbook",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	return v.checkSize(path, info.Size())
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func (v *FileValidator) checkName(name string) error {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%s: %w", base, ErrTemporaryFile)
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("%s (extension %q, want one of %s): %w",
		base, ext, strings.Join(SupportedExtensions, ", "), ErrUnsupportedExtension)
}

func (v *FileValidator) checkSize(name string, size int64) error {
	if size == 0 {
		return fmt.Errorf("%s: %w", filepath.Base(name), ErrEmptyFile)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", filepath.Base(name), size, v.maxBytes, ErrFileTooLarge)
	}
	return nil
}
