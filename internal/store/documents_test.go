package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{
			name:   "plain prefix untouched",
			prefix: "algebra/quadratics",
			want:   "algebra/quadratics",
		},
		{
			name:   "underscore escaped",
			prefix: "unit_one/topic",
			want:   `unit\_one/topic`,
		},
		{
			name:   "percent escaped",
			prefix: "100%/mastery",
			want:   `100\%/mastery`,
		},
		{
			name:   "backslash escaped first",
			prefix: `a\_b`,
			want:   `a\\\_b`,
		},
		{
			name:   "empty stays empty",
			prefix: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLikePrefix(tt.prefix))
		})
	}
}
