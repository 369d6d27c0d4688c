package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", "(empty)"},
		{"short secret hides everything", "abcd1234", "****(8 chars)"},
		{"long secret keeps a prefix", "pat-na1-0123456789abcdef", "pat-****(24 chars)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskSecret(tt.secret)
			assert.Equal(t, tt.want, got)
			if len(tt.secret) > 8 {
				assert.False(t, strings.Contains(got, tt.secret[4:]), "masked value must not contain the secret body")
			}
		})
	}
}
