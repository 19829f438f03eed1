package language

import "testing"

func TestFromCode(t *testing.T) {
	tests := []struct {
		code     string
		wantCode string
		wantName string
	}{
		{"en", "en", "English"},
		{"es", "es", "Spanish"},
		{"ES-mx", "es", "Spanish"},
		{"zh", "zh", "Chinese"},
		{"invalid", "auto", "Auto-detect"},
		{"", "auto", "Auto-detect"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := FromCode(tt.code)
			if got.Code != tt.wantCode {
				t.Errorf("FromCode(%q).Code = %q, want %q", tt.code, got.Code, tt.wantCode)
			}
			if got.Name != tt.wantName {
				t.Errorf("FromCode(%q).Name = %q, want %q", tt.code, got.Name, tt.wantName)
			}
		})
	}
}

func TestLocaleTag(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"es", "es-ES"},
		{"pt", "pt-BR"},
		{"de-AT", "de-DE"},
		{"auto", DefaultLocale},
		{"", DefaultLocale},
		{"xx", DefaultLocale},
	}
	for _, tt := range tests {
		if got := LocaleTag(tt.hint); got != tt.want {
			t.Errorf("LocaleTag(%q) = %q, want %q", tt.hint, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":      "auto",
		" EN ":  "en",
		"pt_BR": "pt",
		"auto":  "auto",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"en", true},
		{"es", true},
		{"auto", true},
		{"", true},
		{"klingon", false},
	}
	for _, tt := range tests {
		if got := IsValidCode(tt.code); got != tt.want {
			t.Errorf("IsValidCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCodesExcludeAuto(t *testing.T) {
	for _, c := range Codes() {
		if c == "" || c == AutoCode {
			t.Fatalf("Codes() contains %q", c)
		}
	}
	if len(Codes()) != len(List()) {
		t.Errorf("len(Codes()) = %d, len(List()) = %d", len(Codes()), len(List()))
	}
	if !IsAuto("") || IsAuto("en") {
		t.Error("IsAuto mismatch")
	}
}
