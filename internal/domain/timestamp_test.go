package domain

import (
	"testing"
	"time"
)

func TestParseTimestamp_RoundTrip(t *testing.T) {
	t.Parallel()

	ts, err := ParseTimestamp("08:05:09,01-02-2021")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want := time.Date(2021, time.February, 1, 8, 5, 9, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("ts=%v, want %v", ts, want)
	}
	if got := FormatTimestamp(ts); got != "08:05:09,01-02-2021" {
		t.Fatalf("format=%q", got)
	}
	if got := Day(ts); !got.Equal(time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day=%v", got)
	}
}

func TestParseTimestamp_CommaAfterSeconds(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"08:00:00,01-01-2021": time.Date(2021, time.January, 1, 8, 0, 0, 0, time.UTC),
		"08:20:00,01-01-2021": time.Date(2021, time.January, 1, 8, 20, 0, 0, time.UTC),
		"23:59:59,31-12-2020": time.Date(2020, time.December, 31, 23, 59, 59, 0, time.UTC),
		"00:00:00,29-02-2024": time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", in, err)
		}
		if !got.Equal(want) || got.Nanosecond() != 0 {
			t.Fatalf("ParseTimestamp(%q)=%v, want %v", in, got, want)
		}
		if f := FormatTimestamp(got); f != in {
			t.Fatalf("FormatTimestamp=%q, want %q", f, in)
		}
	}
}

func TestParseTimestamp_RejectsOtherLayouts(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"2021-01-01 08:00:00", "08:00,01-01-2021", "08:00:00 01-01-2021", "08:00:00,01-01-2021,", "25:00:00,01-01-2021", "08:00:00,32-01-2021", ""} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Fatalf("ParseTimestamp(%q) expected error", in)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{5: "5.0", 120: "120.0", 12.25: "12.25", 0: "0.0", -3: "-3.0"}
	for in, want := range cases {
		if got := FormatFloat(in); got != want {
			t.Fatalf("FormatFloat(%v)=%q, want %q", in, got, want)
		}
	}
	if f, err := ParseFloat(" 5.0 "); err != nil || f != 5 {
		t.Fatalf("ParseFloat=%v, %v", f, err)
	}
	if _, err := ParseFloat("five"); err == nil {
		t.Fatalf("expected error")
	}
}
