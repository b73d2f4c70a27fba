package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyAllow(t *testing.T) {
	tests := []struct {
		name  string
		kinds []string
		kind  ResourceKind
		want  bool
	}{
		{"default blocks images", nil, ResourceImage, false},
		{"default blocks fonts", nil, ResourceFont, false},
		{"default blocks media", nil, ResourceMedia, false},
		{"default allows documents", nil, ResourceDocument, true},
		{"default allows scripts", nil, ResourceScript, true},
		{"default allows xhr", nil, ResourceXHR, true},
		{"kind matching ignores case", nil, ResourceKind("Image"), false},
		{"custom list replaces defaults", []string{"script"}, ResourceImage, true},
		{"custom list blocks named kind", []string{" Script "}, ResourceScript, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPolicy(tt.kinds).Allow(tt.kind))
		})
	}
}
