package sandbox

import "strings"

// DefaultBlockedKinds are aborted unless configured otherwise
var DefaultBlockedKinds = []ResourceKind{ResourceImage, ResourceFont, ResourceMedia}

// Policy decides which outgoing requests may leave the sandbox.
// It only sees requests issued after it is installed on a page.
type Policy struct {
	blocked map[ResourceKind]struct{}
}

// NewPolicy blocks the given resource kinds. Names are matched
// case-insensitively; an empty list falls back to DefaultBlockedKinds.
func NewPolicy(kinds []string) *Policy {
	p := &Policy{blocked: make(map[ResourceKind]struct{})}
	if len(kinds) == 0 {
		for _, k := range DefaultBlockedKinds {
			p.blocked[k] = struct{}{}
		}
		return p
	}
	for _, k := range kinds {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			p.blocked[ResourceKind(k)] = struct{}{}
		}
	}
	return p
}

// Allow reports whether a request of this kind may proceed unmodified
func (p *Policy) Allow(kind ResourceKind) bool {
	_, blocked := p.blocked[ResourceKind(strings.ToLower(string(kind)))]
	return !blocked
}
