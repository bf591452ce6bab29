package middleware

import (
	"GuardianLink/pkg/i18n"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	LangKey        = "lang"
	sessionLangKey = "lang"
)

// LanguageMiddleware resolves the request language from ?lang=, then the
// session, then Accept-Language. An explicit ?lang= is remembered in the
// session when a session middleware is installed.
func LanguageMiddleware(i18nSupport *i18n.I18nSupport) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess sessions.Session
		if _, ok := c.Get(sessions.DefaultKey); ok {
			sess = sessions.Default(c)
		}

		lang := ""
		if q := c.Query("lang"); q != "" {
			lang = i18nSupport.Match(q)
			if sess != nil && sess.Get(sessionLangKey) != lang {
				sess.Set(sessionLangKey, lang)
				_ = sess.Save()
			}
		} else if sess != nil {
			if v, ok := sess.Get(sessionLangKey).(string); ok {
				lang = v
			}
		}
		if lang == "" {
			lang = i18nSupport.Match(c.GetHeader("Accept-Language"))
		}

		// 设置语言
		c.Set(LangKey, lang)
		c.Next()
	}
}

// Lang returns the language chosen by LanguageMiddleware, or def.
func Lang(c *gin.Context, def string) string {
	if v := c.GetString(LangKey); v != "" {
		return v
	}
	return def
}
