package transcribe

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one entry of the known transcription language set.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AutoLanguage asks the collaborator to detect the language itself.
const AutoLanguage = "auto"

var apiLanguages = []Language{
	{Code: AutoLanguage, Name: "Auto detect"},
	{Code: "en", Name: "English"},
	{Code: "de", Name: "German"},
	{Code: "fr", Name: "French"},
	{Code: "es", Name: "Spanish"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "nl", Name: "Dutch"},
	{Code: "pl", Name: "Polish"},
	{Code: "ru", Name: "Russian"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "tr", Name: "Turkish"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "zh", Name: "Chinese"},
}

var languageCodes = func() map[string]struct{} {
	set := make(map[string]struct{}, len(apiLanguages))
	for _, l := range apiLanguages {
		set[l.Code] = struct{}{}
	}
	return set
}()

// Languages returns the known language set for metadata endpoints.
func Languages() []Language {
	cp := make([]Language, len(apiLanguages))
	copy(cp, apiLanguages)
	return cp
}

// NormalizeLanguage canonicalizes a submitted hint ("EN", "en-US", "deu")
// to a known base code. An empty hint means auto detection.
func NormalizeLanguage(hint string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" || h == AutoLanguage {
		return AutoLanguage, true
	}
	tag, err := language.Parse(h)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	code := base.String()
	if _, ok := languageCodes[code]; !ok {
		return "", false
	}
	return code, true
}
