package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const timestampLayout = "20060102_150405"

// ErrReportNotFound is returned for unknown or malformed report names
var ErrReportNotFound = errors.New("report not found")

var reportName = regexp.MustCompile(`^session_\d{8}_\d{6}\.json$`)

var urlReplacer = strings.NewReplacer("/", "_", "?", "_", ":", "_")

// SanitizeURL turns a URL into a filename stem: the scheme is dropped and
// path separators, query marks and colons become underscores.
func SanitizeURL(rawURL string) string {
	s := strings.ReplaceAll(rawURL, "http://", "")
	s = strings.ReplaceAll(s, "https://", "")
	return urlReplacer.Replace(s)
}

// ReportFile describes one persisted session log
type ReportFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Writer stores session logs and screenshots on disk
type Writer struct {
	logDir        string
	screenshotDir string
	logger        *zap.Logger
	now           func() time.Time
}

// NewWriter creates a writer rooted at the given directories
func NewWriter(logDir, screenshotDir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		logDir:        logDir,
		screenshotDir: screenshotDir,
		logger:        logger,
		now:           time.Now,
	}
}

// Persist writes report as session_<timestamp>.json and returns it unchanged.
// Scans finishing within the same second share a name; the last one wins.
func (w *Writer) Persist(report Report) Report {
	path, err := w.persist(report)
	if err != nil {
		w.logger.Error("Failed to persist session log",
			zap.String("url", report.URL),
			zap.String("scan_id", report.ScanID),
			zap.Error(err))
		return report
	}

	w.logger.Debug("Session log written", zap.String("path", path), zap.String("scan_id", report.ScanID))
	return report
}

func (w *Writer) persist(report Report) (string, error) {
	if err := os.MkdirAll(w.logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}

	data, err := sonic.ConfigDefault.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(w.logDir, fmt.Sprintf("session_%s.json", w.now().Format(timestampLayout)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// SaveScreenshot stores PNG bytes under a name derived from the URL
func (w *Writer) SaveScreenshot(rawURL string, data []byte) (string, error) {
	if mt := mimetype.Detect(data); !mt.Is("image/png") {
		return "", fmt.Errorf("%w: expected image/png, got %s", ErrScreenshot, mt.String())
	}

	if err := os.MkdirAll(w.screenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create screenshot dir: %v", ErrScreenshot, err)
	}

	name := fmt.Sprintf("%s_%s.png", SanitizeURL(rawURL), w.now().Format(timestampLayout))
	path := filepath.Join(w.screenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return path, nil
}

// List returns persisted session logs, newest first
func (w *Writer) List() ([]ReportFile, error) {
	entries, err := os.ReadDir(w.logDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []ReportFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	files := make([]ReportFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !reportName.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, ReportFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	// The timestamped names sort chronologically
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// Load reads one persisted session log by file name
func (w *Writer) Load(name string) (Report, error) {
	if !reportName.MatchString(name) {
		return Report{}, ErrReportNotFound
	}

	data, err := os.ReadFile(filepath.Join(w.logDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return Report{}, ErrReportNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}

	var report Report
	if err := sonic.ConfigDefault.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("decode report %s: %w", name, err)
	}
	return report, nil
}
