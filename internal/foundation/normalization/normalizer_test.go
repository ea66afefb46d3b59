package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
)

func newFormatNormalizer() *Normalizer[format] {
	return NewNormalizer(map[string]format{
		"text": formatText,
		"JSON": formatJSON,
	}, formatText)
}

func TestNormalize(t *testing.T) {
	n := newFormatNormalizer()
	tests := []struct {
		in   string
		want format
	}{
		{"json", formatJSON},
		{"  Json ", formatJSON},
		{"TEXT", formatText},
		{"yaml", formatText},
		{"", formatText},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), tt.in)
	}
}

func TestNormalizeWithError(t *testing.T) {
	n := newFormatNormalizer()
	v, err := n.NormalizeWithError("JSON")
	require.NoError(t, err)
	assert.Equal(t, formatJSON, v)

	_, err = n.NormalizeWithError("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[json text]")
}

func TestValidKeys(t *testing.T) {
	n := newFormatNormalizer()
	keys := n.ValidKeys()
	assert.Equal(t, []string{"json", "text"}, keys)
	keys[0] = "mutated"
	assert.Equal(t, []string{"json", "text"}, n.ValidKeys())
}
