package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestCatalog_EveryKeyTranslated(t *testing.T) {
	for key := range japanese {
		_, ok := english[key]
		assert.True(t, ok, "missing english text for %s", key)
	}
	for key := range english {
		_, ok := japanese[key]
		assert.True(t, ok, "missing japanese text for %s", key)
	}
}

func TestCatalog_Text(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "不正なリクエストです。", c.Text(language.Japanese, KeyCSRFInvalid))
	assert.Equal(t, "Invalid request.", c.Text(language.English, KeyCSRFInvalid))
	assert.Equal(t, "unknown.key", c.Text(language.English, "unknown.key"))
}

func TestCatalog_Negotiate(t *testing.T) {
	c := MustNew()

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.Japanese},
		{"en-US,en;q=0.9", language.English},
		{"ja,en;q=0.5", language.Japanese},
		{"fr-FR", language.Japanese},
		{"%%%", language.Japanese},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Negotiate(tt.header))
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := MustNew()
	assert.Equal(t, language.English, c.Lookup("en"))
	assert.Equal(t, language.Japanese, c.Lookup("not a tag"))
}
