package pricing

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed locales/*.json
var localeFS embed.FS

// Labels renders the pricing texts shown next to a quote.
type Labels struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
	tags    []language.Tag
}

func NewLabels() (*Labels, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		path := "locales/" + e.Name()
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	tags := bundle.LanguageTags()
	return &Labels{bundle: bundle, matcher: language.NewMatcher(tags), tags: tags}, nil
}

func (l *Labels) ChooseModel(lang string) string {
	return l.localize(lang, "PricingChooseModel", "Choose model")
}

func (l *Labels) NoPrice(lang string) string {
	return l.localize(lang, "PricingNoPrice", "No price")
}

// Amount formats a price with the grouping rules of lang ("8,500" in English).
// lang may be a single tag or an Accept-Language header value.
func (l *Labels) Amount(lang string, amount float64) string {
	p := message.NewPrinter(l.match(lang))
	if amount == math.Trunc(amount) {
		return p.Sprintf("%d", int64(amount))
	}
	return p.Sprintf("%.2f", amount)
}

// match picks the closest bundle language, English when nothing matches.
func (l *Labels) match(lang string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(prefs) == 0 {
		return language.English
	}
	_, i, conf := l.matcher.Match(prefs...)
	if conf == language.No {
		return language.English
	}
	return l.tags[i]
}

func (l *Labels) localize(lang, id, fallback string) string {
	loc := i18n.NewLocalizer(l.bundle, lang)
	msg, err := loc.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, Other: fallback},
	})
	if err != nil {
		return fallback
	}
	return msg
}
