package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"auto": "",
		"AUTO": "",
		"":     "",
		" es ": "es",
		"EN":   "en",
		"xx":   "xx",
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
		{"auto", true},
		{"", true},
		{"es", true},
		{"pt", true},
		{"En", true},
		{"xx", false},
		{"english", false},
	}
	for _, tt := range tests {
		if got := IsValidCode(tt.code); got != tt.want {
			t.Errorf("IsValidCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFromCode(t *testing.T) {
	if got := FromCode("es"); got.Name != "Spanish" || got.NativeName != "Español" {
		t.Errorf("FromCode(es) = %+v", got)
	}
	if got := FromCode("auto"); got != Auto {
		t.Errorf("FromCode(auto) = %+v, want Auto", got)
	}
	if got := FromCode("zz"); got != Auto {
		t.Errorf("FromCode(zz) = %+v, want Auto", got)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"es":   "Spanish (Español)",
		"en":   "English",
		"auto": "Auto-detect",
		"hy":   "Armenian (Հայերեն)",
	}
	for code, want := range tests {
		if got := Label(code); got != want {
			t.Errorf("Label(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestCodesMatchList(t *testing.T) {
	codes := Codes()
	list := List()
	if len(codes) != len(list) || len(codes) == 0 {
		t.Fatalf("Codes() has %d entries, List() has %d", len(codes), len(list))
	}
	seen := make(map[string]bool)
	for i, c := range codes {
		if c == "" {
			t.Error("Codes() must not contain the auto-detect code")
		}
		if seen[c] {
			t.Errorf("duplicate code %q", c)
		}
		seen[c] = true
		if list[i].Code != c {
			t.Errorf("Codes()[%d] = %q, List()[%d].Code = %q", i, c, i, list[i].Code)
		}
	}
}
