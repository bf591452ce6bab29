package i18n

import (
	"embed"
	"encoding/json"
	"path"
	"sync"

	"GuardianLink/pkg/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// Supported lists the bundled languages.
var Supported = []string{"en", "zh"}

// I18nSupport 国际化支持结构体
type I18nSupport struct {
	bundle      *i18n.Bundle
	defaultLang string
}

// NewI18nSupport 初始化国际化支持，语言文件随二进制打包
func NewI18nSupport(defaultLang string) (*I18nSupport, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, err
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, lang := range Supported {
		name := path.Join("locales", lang+".json")
		buf, err := locales.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(buf, name); err != nil {
			return nil, err
		}
	}

	return &I18nSupport{bundle: bundle, defaultLang: tag.String()}, nil
}

// DefaultLang returns the bundle language.
func (i *I18nSupport) DefaultLang() string { return i.defaultLang }

// T 获取翻译文本
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag, i.defaultLang)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})

	if err != nil {
		logger.Warn("translate failed", zap.String("key", key), zap.Error(err))
		return key // 返回键名作为默认值
	}

	return translation
}

// TWithDefaultLang 使用默认语言获取翻译文本
func (i *I18nSupport) TWithDefaultLang(key string, templateData map[string]interface{}) string {
	return i.T(i.defaultLang, key, templateData)
}

// Match picks the best supported language for an Accept-Language header or
// a plain tag, falling back to the default.
func (i *I18nSupport) Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return i.defaultLang
	}
	supported := make([]language.Tag, 0, len(Supported))
	for _, s := range Supported {
		supported = append(supported, language.MustParse(s))
	}
	_, idx, conf := language.NewMatcher(supported).Match(tags...)
	if conf == language.No {
		return i.defaultLang
	}
	return Supported[idx]
}

// Translator renders message ids in one fixed language.
type Translator func(key string, data map[string]interface{}) string

// Translator binds T to lang.
func (i *I18nSupport) Translator(lang string) Translator {
	return func(key string, data map[string]interface{}) string {
		return i.T(lang, key, data)
	}
}

var (
	englishOnce sync.Once
	english     Translator
)

// English returns a translator over the bundled English messages.
func English() Translator {
	englishOnce.Do(func() {
		s, err := NewI18nSupport("en")
		if err != nil {
			english = func(key string, _ map[string]interface{}) string { return key }
			return
		}
		english = s.Translator("en")
	})
	return english
}
