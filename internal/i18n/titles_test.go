package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "NeonTrade Markets", Title(LangEN, ScreenHome))
	assert.Equal(t, "नियॉनट्रेड बाजार", Title(LangHI, ScreenHome))
}

func TestTitle_Fallbacks(t *testing.T) {
	// Unknown language falls back to English.
	assert.Equal(t, "Account Center", Title(Language("fr"), ScreenProfile))
	// Unknown screen falls back to the app name.
	assert.Equal(t, "NeonTrade", Title(LangEN, "checkout"))
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LangEN.Valid())
	assert.True(t, LangHI.Valid())
	assert.False(t, Language("fr").Valid())
	assert.False(t, Language("").Valid())
}
