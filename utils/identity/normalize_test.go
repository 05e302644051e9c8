package identity

import (
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"  T@Example.EDU ", "t@example.edu"},
		{"ADMIN@SCHOOL.ORG", "admin@school.org"},
		{"", ""},
		{"   ", ""},
		{"already@lower.com", "already@lower.com"},
	}

	for _, c := range cases {
		if got := NormalizeEmail(c.input); got != c.expected {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", c.input, got, c.expected)
		}
	}
}

func TestNormalizeEmailIdempotent(t *testing.T) {
	inputs := []string{"  T@Example.EDU ", "a@b.c", "", "MiXeD@Case.Org"}
	for _, in := range inputs {
		once := NormalizeEmail(in)
		twice := NormalizeEmail(once)
		if once != twice {
			t.Errorf("NormalizeEmail not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"+880 1712-345678", "8801712345678"},
		{"01712345678", "01712345678"},
		{"no digits here", ""},
		{"", ""},
		{"(555) 123-4567", "5551234567"},
	}

	for _, c := range cases {
		if got := NormalizePhone(c.input); got != c.expected {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.input, got, c.expected)
		}
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"+880 1712-345678", "0555", ""}
	for _, in := range inputs {
		once := NormalizePhone(in)
		if twice := NormalizePhone(once); once != twice {
			t.Errorf("NormalizePhone not idempotent for %q", in)
		}
	}
}

func TestPhoneTail(t *testing.T) {
	cases := []struct {
		input    string
		tail     int
		expected string
	}{
		{"+8801712345678", 10, "1712345678"},
		{"8801712345678", 10, "1712345678"},
		{"01712345678", 10, "1712345678"},
		{"12345", 10, "12345"}, // shorter than tail: whole string
		{"", 10, ""},
		{"+8801712345678", 0, "1712345678"}, // zero falls back to default
	}

	for _, c := range cases {
		if got := PhoneTail(c.input, c.tail); got != c.expected {
			t.Errorf("PhoneTail(%q, %d) = %q, want %q", c.input, c.tail, got, c.expected)
		}
	}
}

// Numbers differing only by a national prefix must normalize to the same tail.
func TestPhoneTailPrefixVariants(t *testing.T) {
	variants := []string{"+8801712345678", "8801712345678", "01712345678", "1712345678"}
	want := PhoneTail(variants[0], DefaultPhoneTailLength)
	for _, v := range variants[1:] {
		if got := PhoneTail(v, DefaultPhoneTailLength); got != want {
			t.Errorf("PhoneTail(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestPhonesMatch(t *testing.T) {
	if !PhonesMatch("+8801712345678", "01712345678") {
		t.Error("expected prefix variants to match")
	}
	if PhonesMatch("", "01712345678") {
		t.Error("empty phone must never match")
	}
	if PhonesMatch("+8801712345678", "+8801712345679") {
		t.Error("different numbers must not match")
	}
}

func TestEmailsMatch(t *testing.T) {
	if !EmailsMatch(" T@Example.EDU", "t@example.edu") {
		t.Error("expected case/space variants to match")
	}
	if EmailsMatch("", "") {
		t.Error("empty emails must never match")
	}
}
