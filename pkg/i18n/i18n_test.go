package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLang(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	assert.Equal(t, "Unsupported column type", l.Get("en", ERROR_INVALID_COLUMN_TYPE))
	assert.Equal(t, "不支持的列类型", l.Get("zh-CN", ERROR_INVALID_COLUMN_TYPE))
}

func TestUnknownLanguageFallsBackToID(t *testing.T) {
	l := NewLocalizer("en")
	assert.Equal(t, ERROR_INTERNAL, l.Get("fr", ERROR_INTERNAL))
	assert.Equal(t, "missing.key", l.Get("en", "missing.key"))
}

func TestMatch(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	assert.Equal(t, "zh-CN", l.Match("zh"))
	assert.Equal(t, "zh-CN", l.Match("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", l.Match("en-US"))
	assert.Equal(t, "en", l.Match(""))
	assert.Equal(t, "en", l.Match("!!"))
}
