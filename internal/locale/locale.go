// Package locale holds the closed set of supported languages, the translation
// bundles served to the UI and the persisted language preference.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Code is a supported language code.
type Code string

const (
	English Code = "en"
	French  Code = "fr"
	German  Code = "de"
	Hebrew  Code = "he"
)

// Default is used whenever a code is missing or unknown.
const Default = English

// Supported lists the languages in the order they are offered to the user.
var Supported = []Code{English, French, German, Hebrew}

// matcher indexes line up with Supported.
var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
	language.German,
	language.Hebrew,
})

// Parse returns the code for s and whether it is supported.
func Parse(s string) (Code, bool) {
	c := Code(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Supported {
		if c == known {
			return c, true
		}
	}
	return Default, false
}

// Valid reports whether c is one of the supported codes.
func (c Code) Valid() bool {
	_, ok := Parse(string(c))
	return ok
}

// PromptName is the English name of the language, used in model prompts.
func (c Code) PromptName() string {
	switch c {
	case French:
		return "French"
	case German:
		return "German"
	case Hebrew:
		return "Hebrew"
	default:
		return "English"
	}
}

// NativeName is the name of the language in that language.
func (c Code) NativeName() string {
	switch c {
	case French:
		return "Français"
	case German:
		return "Deutsch"
	case Hebrew:
		return "עברית"
	default:
		return "English"
	}
}

// Direction returns the text direction for the language.
func (c Code) Direction() string {
	if c == Hebrew {
		return "rtl"
	}
	return "ltr"
}

// Negotiate picks the best supported language for an Accept-Language header.
func Negotiate(acceptLanguage string) Code {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(Supported) {
		return Default
	}
	return Supported[idx]
}
