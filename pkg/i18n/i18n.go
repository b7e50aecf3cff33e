package i18n

import (
	"embed"
	"log/slog"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	//go:embed *.toml
	f embed.FS
)

type Localizer struct {
	bundle    *i18n.Bundle
	registry  map[string]*i18n.Localizer
	languages []string
	matcher   language.Matcher
}

func NewLocalizer(languages ...string) Localizer {
	// 默认语言排在首位, matcher 以首个语言兜底
	languages = append([]string(nil), languages...)
	sort.SliceStable(languages, func(i, j int) bool {
		return languages[i] == DEFAULT_LANG && languages[j] != DEFAULT_LANG
	})

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range languages {
		path := lang + ".toml"
		if _, err := bundle.LoadMessageFileFS(f, path); err != nil {
			slog.Error("Failed to load i18n message config", slog.String("error", err.Error()), slog.String("lang", lang), slog.String("file", path))
		}
	}

	l := Localizer{
		bundle:    bundle,
		registry:  make(map[string]*i18n.Localizer),
		languages: languages,
	}
	tags := make([]language.Tag, 0, len(languages))
	for _, lang := range languages {
		l.registry[lang] = i18n.NewLocalizer(l.bundle, lang)
		tags = append(tags, language.Make(lang))
	}
	if len(tags) > 0 {
		l.matcher = language.NewMatcher(tags)
	}
	return l
}

// Match picks the loaded language closest to an Accept-Language header value.
func (l Localizer) Match(acceptLanguage string) string {
	if acceptLanguage == "" || l.matcher == nil {
		return DEFAULT_LANG
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DEFAULT_LANG
	}
	_, idx, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return DEFAULT_LANG
	}
	return l.languages[idx]
}

// Get returns the localized message for id, or id itself when no translation exists.
func (l Localizer) Get(lang string, id string) string {
	return l.GetWithData(lang, id, nil)
}

func (l Localizer) GetWithData(lang, id string, data map[string]interface{}) string {
	localizer := l.registry[lang]
	if localizer == nil {
		return id
	}
	cfg := &i18n.LocalizeConfig{
		MessageID: id,
		DefaultMessage: &i18n.Message{
			ID:    id,
			Other: id,
		},
		TemplateData: data,
	}
	str, err := localizer.Localize(cfg)
	if err != nil {
		slog.Debug("failed to get localizer message", slog.String("id", id), slog.String("lang", lang), slog.String("error", err.Error()))
		return id
	}

	return str
}
