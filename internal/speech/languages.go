package speech

// supportedLanguages maps ISO-639-1 codes to display names. The table is used
// only for display enrichment; an unrecognized code never fails a request.
var supportedLanguages = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"de": "German",
	"es": "Spanish",
	"ru": "Russian",
	"ko": "Korean",
	"fr": "French",
	"ja": "Japanese",
	"pt": "Portuguese",
	"tr": "Turkish",
	"pl": "Polish",
	"ca": "Catalan",
	"nl": "Dutch",
	"ar": "Arabic",
	"sv": "Swedish",
	"it": "Italian",
	"id": "Indonesian",
	"hi": "Hindi",
	"fi": "Finnish",
	"vi": "Vietnamese",
}

// SupportedLanguages returns a copy of the language table
func SupportedLanguages() map[string]string {
	langs := make(map[string]string, len(supportedLanguages))
	for code, name := range supportedLanguages {
		langs[code] = name
	}
	return langs
}

// LanguageCount returns the number of supported languages
func LanguageCount() int {
	return len(supportedLanguages)
}

// LanguageName returns the display name for a language code, or "Unknown"
// for codes outside the table
func LanguageName(code string) string {
	if name, ok := supportedLanguages[code]; ok {
		return name
	}
	return "Unknown"
}
