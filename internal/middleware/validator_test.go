package middleware

import "testing"

func TestValidateOrgan(t *testing.T) {
	for _, organ := range []string{"heart", "lungs", "brain", "liver", "kidney", "eye", "Heart"} {
		if err := ValidateOrgan(organ); err != nil {
			t.Fatalf("organ %q rejected: %v", organ, err)
		}
	}
	for _, organ := range []string{"", "spleen", "heart; drop"} {
		if err := ValidateOrgan(organ); err == nil {
			t.Fatalf("organ %q accepted", organ)
		}
	}
}

func TestValidateAge(t *testing.T) {
	for _, age := range []string{"", "0", "42", "120"} {
		if err := ValidateAge(age); err != nil {
			t.Fatalf("age %q rejected: %v", age, err)
		}
	}
	for _, age := range []string{"-1", "121", "forty", "4.5"} {
		if err := ValidateAge(age); err == nil {
			t.Fatalf("age %q accepted", age)
		}
	}
}

func TestValidateResultID(t *testing.T) {
	for _, id := range []string{"r1", "abc-DEF_123"} {
		if err := ValidateResultID(id); err != nil {
			t.Fatalf("id %q rejected: %v", id, err)
		}
	}
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	for _, id := range []string{"", "../etc", "a b", string(long)} {
		if err := ValidateResultID(id); err == nil {
			t.Fatalf("id %q accepted", id)
		}
	}
}

func TestValidateTheme(t *testing.T) {
	if err := ValidateTheme("light"); err != nil {
		t.Fatal(err)
	}
	if err := ValidateTheme("dark"); err != nil {
		t.Fatal(err)
	}
	if err := ValidateTheme("neon"); err == nil {
		t.Fatal("theme neon accepted")
	}
}

func TestSanitizeString(t *testing.T) {
	cases := map[string]string{
		"  chest pain  ":     "chest pain",
		"line1\nline2":       "line1\nline2",
		"null\x00byte":       "nullbyte",
		"bell\x07char":       "bellchar",
		"tab\tseparated":     "tab\tseparated",
		"\x1b[31mescaped\n ": "[31mescaped",
	}
	for in, want := range cases {
		if got := SanitizeString(in); got != want {
			t.Fatalf("SanitizeString(%q): got %q, want %q", in, got, want)
		}
	}
}
