package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	s, err := NewI18nSupport("en")
	require.NoError(t, err)

	assert.Equal(t, "SOS signal #2 sent", s.T("en", "sos.signal.title", map[string]interface{}{"N": 2}))
	assert.Equal(t, "已发送第 2 次求救信号", s.T("zh", "sos.signal.title", map[string]interface{}{"N": 2}))
	assert.Equal(t, `Room "Night Walk" created!`, s.TWithDefaultLang("room.created.title", map[string]interface{}{"Name": "Night Walk"}))

	t.Run("unknown language falls back", func(t *testing.T) {
		assert.Equal(t, "SOS Deactivated", s.T("fr", "sos.stopped.title", nil))
	})
	t.Run("unknown key returns key", func(t *testing.T) {
		assert.Equal(t, "no.such.key", s.T("en", "no.such.key", nil))
	})
}

func TestMatch(t *testing.T) {
	s, err := NewI18nSupport("en")
	require.NoError(t, err)

	assert.Equal(t, "zh", s.Match("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", s.Match("en-US"))
	assert.Equal(t, "en", s.Match(""))
	assert.Equal(t, "en", s.Match("de"))
}

func TestBadDefault(t *testing.T) {
	_, err := NewI18nSupport("not a tag!")
	assert.Error(t, err)
}

func TestTranslator(t *testing.T) {
	s, err := NewI18nSupport("en")
	require.NoError(t, err)

	zh := s.Translator("zh")
	assert.Equal(t, s.T("zh", "sos.stopped.title", nil), zh("sos.stopped.title", nil))
	assert.Equal(t, "Chat not found.", English()("chat.notfound.body", nil))
}
