package normalize

import "testing"

func TestParseIntToken(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		ok       bool
	}{
		{"12500", 12500, true},
		{"12.500", 12500, true},
		{"12,500", 12500, true},
		{" 177.000 ", 177000, true},
		{"1.234.567", 1234567, true},
		{"2011", 2011, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"12a500", 0, false},
		{"-5", 0, false},
		{"€", 0, false},
	}

	for _, tc := range testCases {
		got, ok := ParseIntToken(tc.input)
		if ok != tc.ok || got != tc.expected {
			t.Errorf("ParseIntToken(%q): expected (%d, %v), got (%d, %v)",
				tc.input, tc.expected, tc.ok, got, ok)
		}
	}
}

func TestParseIntPtr(t *testing.T) {
	if p := ParseIntPtr("9.990"); p == nil || *p != 9990 {
		t.Errorf("ParseIntPtr(\"9.990\"): expected 9990, got %v", p)
	}
	if p := ParseIntPtr("n/a"); p != nil {
		t.Errorf("ParseIntPtr(\"n/a\"): expected nil, got %d", *p)
	}
}
