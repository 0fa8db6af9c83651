package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// ReportSuffix is appended to the sanitized student name.
const ReportSuffix = "_Career_Report"

// Storage errors
var (
	ErrInvalidFilename = fmt.Errorf("%w: invalid report filename", domain.ErrValidation)
	ErrReportNotFound  = fmt.Errorf("report %w", domain.ErrNotFound)
)

// ReportStore resolves report files under a single root directory.
type ReportStore struct {
	root   string
	logger *slog.Logger
}

// NewReportStore creates dir if needed and checks that it is writable.
func NewReportStore(dir string, logger *slog.Logger) (*ReportStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: reports directory cannot be empty", domain.ErrConfiguration)
	}
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve reports directory: %v", domain.ErrConfiguration, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create reports directory: %v", domain.ErrConfiguration, err)
	}

	probe, err := os.CreateTemp(root, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("%w: reports directory is not writable: %v", domain.ErrConfiguration, err)
	}
	probeName := probe.Name()
	_ = probe.Close()
	if err := os.Remove(probeName); err != nil {
		logger.Warn("failed to remove write probe", "error", err)
	}

	logger.Info("report storage ready", "reports_dir", root)
	return &ReportStore{root: root, logger: logger.With("component", "report_store")}, nil
}

// Root returns the absolute storage directory.
func (s *ReportStore) Root() string {
	return s.root
}

// ReportFileName derives the report file name for a student. Spaces become
// underscores and anything outside [A-Za-z0-9_-] is dropped.
func ReportFileName(studentName, ext string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(studentName) {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '_' || r == '-',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	base := b.String()
	if strings.Trim(base, "_-") == "" {
		base = domain.DefaultStudentName
	}
	return base + ReportSuffix + "." + strings.TrimPrefix(ext, ".")
}

// Destination returns the file name and absolute path of the report for studentName.
func (s *ReportStore) Destination(studentName, ext string) (string, string, error) {
	name := ReportFileName(studentName, ext)
	return name, filepath.Join(s.root, name), nil
}

// Resolve maps a bare file name to an existing file under the root. Names
// with path separators or parent segments are rejected.
func (s *ReportStore) Resolve(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if err := validateFilename(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.root, name)
	if filepath.Dir(path) != s.root {
		return "", ErrInvalidFilename
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrReportNotFound
		}
		return "", fmt.Errorf("stat report: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", ErrReportNotFound
	}
	return path, nil
}

// Open resolves filename and opens it for reading.
func (s *ReportStore) Open(filename string) (*os.File, os.FileInfo, error) {
	path, err := s.Resolve(filename)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrReportNotFound
		}
		return nil, nil, fmt.Errorf("open report: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat report: %w", err)
	}
	return f, info, nil
}

func validateFilename(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return ErrInvalidFilename
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return ErrInvalidFilename
	case strings.Contains(name, ".."):
		return ErrInvalidFilename
	case filepath.IsAbs(name), filepath.VolumeName(name) != "":
		return ErrInvalidFilename
	case strings.HasPrefix(name, "."):
		// Hidden files, including write probes, are never served.
		return ErrInvalidFilename
	}
	return nil
}
