// Package language holds the languages voicebridge can recognize and translate,
// and the locale tags the in-process recognizer expects.
package language

import "strings"

// DefaultLocale is used by the recognizer when a hint is unmapped or "auto".
const DefaultLocale = "en-US"

// AutoCode is the hint value that asks for source language detection.
const AutoCode = "auto"

type Language struct {
	Code       string // ISO 639-1
	Name       string
	NativeName string
	Locale     string // BCP 47 tag for speech recognition
}

var Auto = Language{Code: AutoCode, Name: "Auto-detect", Locale: DefaultLocale}

var languages = []Language{
	{"af", "Afrikaans", "Afrikaans", "af-ZA"},
	{"ar", "Arabic", "العربية", "ar-SA"},
	{"hy", "Armenian", "Հայերեն", "hy-AM"},
	{"az", "Azerbaijani", "Azərbaycan", "az-AZ"},
	{"be", "Belarusian", "Беларуская", "be-BY"},
	{"bs", "Bosnian", "Bosanski", "bs-BA"},
	{"bg", "Bulgarian", "Български", "bg-BG"},
	{"ca", "Catalan", "Català", "ca-ES"},
	{"zh", "Chinese", "中文", "zh-CN"},
	{"hr", "Croatian", "Hrvatski", "hr-HR"},
	{"cs", "Czech", "Čeština", "cs-CZ"},
	{"da", "Danish", "Dansk", "da-DK"},
	{"nl", "Dutch", "Nederlands", "nl-NL"},
	{"en", "English", "English", "en-US"},
	{"et", "Estonian", "Eesti", "et-EE"},
	{"fi", "Finnish", "Suomi", "fi-FI"},
	{"fr", "French", "Français", "fr-FR"},
	{"gl", "Galician", "Galego", "gl-ES"},
	{"de", "German", "Deutsch", "de-DE"},
	{"el", "Greek", "Ελληνικά", "el-GR"},
	{"he", "Hebrew", "עברית", "he-IL"},
	{"hi", "Hindi", "हिन्दी", "hi-IN"},
	{"hu", "Hungarian", "Magyar", "hu-HU"},
	{"is", "Icelandic", "Íslenska", "is-IS"},
	{"id", "Indonesian", "Bahasa Indonesia", "id-ID"},
	{"it", "Italian", "Italiano", "it-IT"},
	{"ja", "Japanese", "日本語", "ja-JP"},
	{"kn", "Kannada", "ಕನ್ನಡ", "kn-IN"},
	{"kk", "Kazakh", "Қазақ", "kk-KZ"},
	{"ko", "Korean", "한국어", "ko-KR"},
	{"lv", "Latvian", "Latviešu", "lv-LV"},
	{"lt", "Lithuanian", "Lietuvių", "lt-LT"},
	{"mk", "Macedonian", "Македонски", "mk-MK"},
	{"ms", "Malay", "Bahasa Melayu", "ms-MY"},
	{"mr", "Marathi", "मराठी", "mr-IN"},
	{"mi", "Maori", "Māori", "mi-NZ"},
	{"ne", "Nepali", "नेपाली", "ne-NP"},
	{"no", "Norwegian", "Norsk", "nb-NO"},
	{"fa", "Persian", "فارسی", "fa-IR"},
	{"pl", "Polish", "Polski", "pl-PL"},
	{"pt", "Portuguese", "Português", "pt-BR"},
	{"ro", "Romanian", "Română", "ro-RO"},
	{"ru", "Russian", "Русский", "ru-RU"},
	{"sr", "Serbian", "Српски", "sr-RS"},
	{"sk", "Slovak", "Slovenčina", "sk-SK"},
	{"sl", "Slovenian", "Slovenščina", "sl-SI"},
	{"es", "Spanish", "Español", "es-ES"},
	{"sw", "Swahili", "Kiswahili", "sw-KE"},
	{"sv", "Swedish", "Svenska", "sv-SE"},
	{"tl", "Tagalog", "Tagalog", "fil-PH"},
	{"ta", "Tamil", "தமிழ்", "ta-IN"},
	{"th", "Thai", "ไทย", "th-TH"},
	{"tr", "Turkish", "Türkçe", "tr-TR"},
	{"uk", "Ukrainian", "Українська", "uk-UA"},
	{"ur", "Urdu", "اردو", "ur-PK"},
	{"vi", "Vietnamese", "Tiếng Việt", "vi-VN"},
	{"cy", "Welsh", "Cymraeg", "cy-GB"},
}

var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages)+2)
	codeIndex[""] = Auto
	codeIndex[AutoCode] = Auto
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
	}
}

// Normalize lowercases code and strips a region suffix: "es-MX" -> "es".
// Empty input becomes "auto".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return AutoCode
	}
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// FromCode returns the Language for code, or Auto when unknown.
func FromCode(code string) Language {
	if lang, ok := codeIndex[Normalize(code)]; ok {
		return lang
	}
	return Auto
}

// LocaleTag maps a language hint to the recognizer locale, falling back to
// DefaultLocale for "auto" and unmapped hints.
func LocaleTag(hint string) string {
	return FromCode(hint).Locale
}

// IsAuto reports whether code asks for detection.
func IsAuto(code string) bool {
	return Normalize(code) == AutoCode
}

func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Codes returns every code except auto.
func Codes() []string {
	codes := make([]string, len(languages))
	for i, lang := range languages {
		codes[i] = lang.Code
	}
	return codes
}

// IsValidCode accepts known codes, "auto" and the empty string.
func IsValidCode(code string) bool {
	_, ok := codeIndex[Normalize(code)]
	return ok
}
