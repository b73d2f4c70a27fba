package sandbox

// Category is a console severity bucket
type Category int

const (
	CategoryErrors Category = iota
	CategoryWarnings
	CategoryInfo
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryErrors:
		return "errors"
	case CategoryWarnings:
		return "warnings"
	case CategoryInfo:
		return "info"
	default:
		return "other"
	}
}

// LogBuckets partitions console messages by severity
type LogBuckets struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
	Other    []string `json:"other"`
}

func (b *LogBuckets) add(c Category, text string) {
	switch c {
	case CategoryErrors:
		b.Errors = append(b.Errors, text)
	case CategoryWarnings:
		b.Warnings = append(b.Warnings, text)
	case CategoryInfo:
		b.Info = append(b.Info, text)
	default:
		b.Other = append(b.Other, text)
	}
}

// Len returns the number of messages across all buckets
func (b LogBuckets) Len() int {
	return len(b.Errors) + len(b.Warnings) + len(b.Info) + len(b.Other)
}

// Report is the evidence record of one scan. The first nine JSON fields are
// a stable contract shared with persisted session logs.
type Report struct {
	URL                  string          `json:"url"`
	ConsoleLogs          []string        `json:"console_logs"`
	CategorizedLogs      LogBuckets      `json:"categorized_logs"`
	Error                *string         `json:"error"`
	ScreenshotPath       *string         `json:"screenshot_path"`
	Debug                []string        `json:"debug"`
	AutoDownloadDetected bool            `json:"auto_download_detected"`
	HeuristicScore       int             `json:"heuristic_score"`
	Title                string          `json:"title"`
	ScanID               string          `json:"scan_id,omitempty"`
	Breakdown            *ScoreBreakdown `json:"breakdown,omitempty"`
}

// NewReport returns an empty report for url
func NewReport(url string) Report {
	return Report{
		URL:         url,
		ConsoleLogs: []string{},
		CategorizedLogs: LogBuckets{
			Errors:   []string{},
			Warnings: []string{},
			Info:     []string{},
			Other:    []string{},
		},
		Debug: []string{},
	}
}

// Clone returns a deep copy
func (r Report) Clone() Report {
	out := r
	out.ConsoleLogs = append([]string{}, r.ConsoleLogs...)
	out.Debug = append([]string{}, r.Debug...)
	out.CategorizedLogs = LogBuckets{
		Errors:   append([]string{}, r.CategorizedLogs.Errors...),
		Warnings: append([]string{}, r.CategorizedLogs.Warnings...),
		Info:     append([]string{}, r.CategorizedLogs.Info...),
		Other:    append([]string{}, r.CategorizedLogs.Other...),
	}
	if r.Error != nil {
		msg := *r.Error
		out.Error = &msg
	}
	if r.ScreenshotPath != nil {
		path := *r.ScreenshotPath
		out.ScreenshotPath = &path
	}
	if r.Breakdown != nil {
		b := r.Breakdown.clone()
		out.Breakdown = &b
	}
	return out
}

// Failed reports whether the scan ended with an error
func (r Report) Failed() bool {
	return r.Error != nil
}
