package sheet

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2025-05-01":                "2025-05-01",
		" 2025/05/01 ":              "2025-05-01",
		"05/01/2025":                "2025-05-01",
		"5/1/2025":                  "2025-05-01",
		"05/01/2025 10:30 AM":       "2025-05-01",
		"2025-05-01 00:00:00":       "2025-05-01",
		"2025-05-01T08:15:00+05:30": "2025-05-01",
		"2025-05-01T08:15:00Z":      "2025-05-01",
		"01-May-2025":               "2025-05-01",
		"May 1, 2025":               "2025-05-01",
		"1 May 2025":                "2025-05-01",
		"20250501":                  "2025-05-01",
		"45778":                     "2025-05-01",
		"45778.75":                  "2025-05-01",
		"25569":                     "1970-01-01",
	}
	for in, want := range cases {
		got, ok := NormalizeDate(in, false)
		if !ok || got != want {
			t.Fatalf("NormalizeDate(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
}

func TestNormalizeDateRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "13/45/2025", "2025-02-30", "-3", "N/A", "12", "2025", "25568", "2958466"} {
		if got, ok := NormalizeDate(in, false); ok {
			t.Fatalf("NormalizeDate(%q) accepted as %q", in, got)
		}
	}
}

func TestCleanNumber(t *testing.T) {
	cases := map[string]float64{
		"1,234.50":  1234.5,
		"$1,000":    1000,
		"₹ 2,000":   2000,
		"-15":       -15,
		"(250)":     -250,
		"87%":       87,
		" 42 ":      42,
		"USD 9.99 ": 9.99,
	}
	for in, want := range cases {
		got, ok := CleanNumber(in)
		if !ok || got != want {
			t.Fatalf("CleanNumber(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "abc", "-", "1.2.3", "N/A"} {
		if _, ok := CleanNumber(in); ok {
			t.Fatalf("CleanNumber(%q) should fail", in)
		}
	}
}

func TestCleanIntRounds(t *testing.T) {
	if v, ok := CleanInt("12.6"); !ok || v != 13 {
		t.Fatalf("CleanInt = %d, %v", v, ok)
	}
	if _, ok := CleanInt("x"); ok {
		t.Fatalf("CleanInt should fail on text")
	}
}
