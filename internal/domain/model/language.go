package model

// DefaultLanguage is used whenever a user has no stored preference or it cannot be read.
const DefaultLanguage = "en"

type Language struct {
	Code string
	Name string
}

// SupportedLanguages is the fixed set offered in the language picker, in display order.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "am", Name: "Amharic"},
	{Code: "om", Name: "Afaan Oromoo"},
	{Code: "ti", Name: "Tigrinya"},
	{Code: "so", Name: "Somali"},
	{Code: "ar", Name: "Arabic"},
	{Code: "fr", Name: "French"},
	{Code: "es", Name: "Spanish"},
}

func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LanguageName returns the display name for code, or the code itself if unknown.
func LanguageName(code string) string {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
