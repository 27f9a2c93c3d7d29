package domain

import (
	"fmt"
	"strings"
	"time"
)

// Locale selects the display date rendering.
type Locale string

// Supported locales.
const (
	LocaleEN Locale = "en"
	LocaleRU Locale = "ru"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = LocaleEN

var shortMonths = map[Locale][12]string{
	LocaleEN: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	LocaleRU: {"янв.", "февр.", "март", "апр.", "май", "июнь", "июль", "авг.", "сент.", "окт.", "нояб.", "дек."},
}

// ParseLocale maps a language tag such as "ru-RU" to a supported locale,
// falling back to DefaultLocale.
func ParseLocale(tag string) Locale {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if _, ok := shortMonths[Locale(tag)]; ok {
		return Locale(tag)
	}
	return DefaultLocale
}

// FormatDisplayDate renders ts as a short month and two-digit year
// ("Mar 24", "март 24 г.") in UTC.
func FormatDisplayDate(ts time.Time, locale Locale) string {
	months, ok := shortMonths[locale]
	if !ok {
		months = shortMonths[DefaultLocale]
		locale = DefaultLocale
	}
	ts = ts.UTC()
	month := months[ts.Month()-1]
	year := ts.Year() % 100
	if locale == LocaleRU {
		return fmt.Sprintf("%s %02d г.", month, year)
	}
	return fmt.Sprintf("%s %02d", month, year)
}
