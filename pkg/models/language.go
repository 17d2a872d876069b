package models

// DefaultLanguage is the code assumed when language detection fails.
const DefaultLanguage = "en-US"

// SupportedLanguages maps the language codes the service translates into to
// their human-readable names. The names are what the translation backend is
// prompted with.
var SupportedLanguages = map[string]string{
	"en-US": "English",
	"ar-AR": "Arabic",
	"zh-CN": "Mandarin",
	"ta-IN": "Tamil",
	"ms-MY": "Malay",
}

// LanguageName resolves a code to its display name, falling back to the code
// itself for unknown languages (a detected source language may be outside the
// supported set).
func LanguageName(code string) string {
	if name, ok := SupportedLanguages[code]; ok {
		return name
	}
	return code
}
