package sandbox

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/infrastructure/config"
	"golang.org/x/net/idna"
)

// MaxScore caps the heuristic score
const MaxScore = 10

const (
	scriptDensityThreshold = 10
	downloadPoints         = 2
)

var ipLiteral = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// URLFlags are the structural signals derived from the request URL alone
type URLFlags struct {
	SuspiciousTLD bool `json:"suspicious_tld"`
	FreeHost      bool `json:"free_host"`
	BrandInPath   bool `json:"brand_in_path"`
	IPHost        bool `json:"ip_host"`
}

// Points returns the structural sub-score, 0 to 4
func (f URLFlags) Points() int {
	n := 0
	for _, set := range []bool{f.SuspiciousTLD, f.FreeHost, f.BrandInPath, f.IPHost} {
		if set {
			n++
		}
	}
	return n
}

// ScoreInput is everything the scorer looks at
type ScoreInput struct {
	URL              string
	Title            string
	HTML             string
	ConsoleErrors    int
	DownloadDetected bool
}

// ScoreBreakdown lists each signal's contribution
type ScoreBreakdown struct {
	ScriptCount     int      `json:"script_count"`
	ScriptDensity   int      `json:"script_density"`
	MatchedKeywords []string `json:"matched_keywords"`
	ConsoleErrors   int      `json:"console_errors"`
	Download        int      `json:"download"`
	TitleKeyword    int      `json:"title_keyword"`
	URL             URLFlags `json:"url"`
	Raw             int      `json:"raw"`
	Total           int      `json:"total"`
}

func (b ScoreBreakdown) clone() ScoreBreakdown {
	b.MatchedKeywords = append([]string{}, b.MatchedKeywords...)
	return b
}

// Scorer reduces page observations to a bounded risk score.
// It is pure: no I/O, same input gives the same output.
type Scorer struct {
	keywords []string
	tlds     map[string]struct{}
	hosts    []string
	brands   []string
}

// NewScorer builds a scorer over the given deny-lists
func NewScorer(rules config.Rules) *Scorer {
	s := &Scorer{
		keywords: lowerAll(rules.Keywords),
		tlds:     make(map[string]struct{}, len(rules.SuspiciousTLDs)),
		hosts:    lowerAll(rules.FreeHosts),
		brands:   lowerAll(rules.Brands),
	}
	for _, tld := range rules.SuspiciousTLDs {
		s.tlds[strings.ToLower(strings.TrimPrefix(tld, "."))] = struct{}{}
	}
	return s
}

// Score computes the clamped score and its breakdown
func (s *Scorer) Score(in ScoreInput) ScoreBreakdown {
	b := ScoreBreakdown{
		ScriptCount:     strings.Count(in.HTML, "<script"),
		MatchedKeywords: []string{},
		ConsoleErrors:   in.ConsoleErrors,
		URL:             s.Structural(in.URL),
	}

	if b.ScriptCount > scriptDensityThreshold {
		b.ScriptDensity = 1
	}

	html := strings.ToLower(in.HTML)
	for _, kw := range s.keywords {
		if strings.Contains(html, kw) {
			b.MatchedKeywords = append(b.MatchedKeywords, kw)
		}
	}

	if in.DownloadDetected {
		b.Download = downloadPoints
	}

	title := strings.ToLower(in.Title)
	for _, kw := range s.keywords {
		if strings.Contains(title, kw) {
			b.TitleKeyword = 1
			break
		}
	}

	b.Raw = b.ScriptDensity + len(b.MatchedKeywords) + b.ConsoleErrors + b.Download + b.TitleKeyword + b.URL.Points()
	b.Total = clamp(b.Raw)
	return b
}

// Structural computes the URL flags. The TLD is the last dot label of the
// host including any port; brand impersonation means a brand in the path
// while the host names none.
func (s *Scorer) Structural(rawURL string) URLFlags {
	host, path := splitURL(rawURL)

	var flags URLFlags

	labels := strings.Split(host, ".")
	if _, ok := s.tlds[labels[len(labels)-1]]; ok {
		flags.SuspiciousTLD = true
	}

	flags.FreeHost = containsAny(host, s.hosts)
	flags.BrandInPath = containsAny(path, s.brands) && !containsAny(host, s.brands)

	hostname := host
	if i := strings.IndexByte(hostname, ':'); i >= 0 {
		hostname = hostname[:i]
	}
	flags.IPHost = ipLiteral.MatchString(hostname)

	return flags
}

// splitURL returns the lowercased host (with port) and path. Non-ASCII
// hosts are converted to punycode so lookalike domains compare as ASCII.
func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}

	host = strings.ToLower(u.Host)
	if !isASCII(host) {
		if ascii, err := idna.Punycode.ToASCII(host); err == nil {
			host = ascii
		}
	}
	return host, strings.ToLower(u.Path)
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
