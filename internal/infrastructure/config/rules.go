package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Rules holds the static deny-lists used by the heuristic scorer.
type Rules struct {
	Keywords       []string `yaml:"keywords"`
	SuspiciousTLDs []string `yaml:"suspicious_tlds"`
	FreeHosts      []string `yaml:"free_hosts"`
	Brands         []string `yaml:"brands"`
}

// DefaultRules returns the built-in deny-lists.
func DefaultRules() Rules {
	return Rules{
		Keywords: []string{
			"login", "verify", "password", "bank", "update", "reset",
			"signin", "checkout", "get cash", "win", "limited offer", "invoice",
		},
		SuspiciousTLDs: []string{"xyz", "tk", "ml", "ga", "cf", "click", "shop"},
		FreeHosts:      []string{"vercel.app", "netlify.app", "github.io", "glitch.me"},
		Brands: []string{
			"facebook", "paypal", "amazon", "netflix", "apple", "google",
			"microsoft", "instagram", "linkedin", "bank", "visa", "mastercard",
		},
	}
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return rules, nil
}

// Merge returns r with every non-empty list of other replacing its
// counterpart.
func (r Rules) Merge(other Rules) Rules {
	if len(other.Keywords) > 0 {
		r.Keywords = other.Keywords
	}
	if len(other.SuspiciousTLDs) > 0 {
		r.SuspiciousTLDs = other.SuspiciousTLDs
	}
	if len(other.FreeHosts) > 0 {
		r.FreeHosts = other.FreeHosts
	}
	if len(other.Brands) > 0 {
		r.Brands = other.Brands
	}
	return r
}
