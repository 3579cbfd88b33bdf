package speech

import "testing"

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"hi", "Hindi"},
		{"vi", "Vietnamese"},
		{"xx", "Unknown"},
		{"", "Unknown"},
	}
	for _, tc := range tests {
		if got := LanguageName(tc.code); got != tc.want {
			t.Errorf("LanguageName(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestLanguageCount(t *testing.T) {
	if got := LanguageCount(); got != 20 {
		t.Errorf("LanguageCount() = %d, want 20", got)
	}
}

func TestSupportedLanguagesIsACopy(t *testing.T) {
	langs := SupportedLanguages()
	langs["en"] = "mutated"
	if LanguageName("en") != "English" {
		t.Error("mutating the returned map changed the language table")
	}
}
