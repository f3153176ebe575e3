package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime(" 2020-02-29 ")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeExtraLayout(t *testing.T) {
	got, ok := ParseTime("31.01.2020", "02.01.2006")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Month() != time.January || got.Day() != 31 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "2020-13-45"} {
		if _, ok := ParseTime(s); ok {
			t.Fatalf("expected %q to fail", s)
		}
	}
}

func TestParseDateRejectsDigitStrings(t *testing.T) {
	for _, s := range []string{"20200131", "1586000000"} {
		if got, ok := ParseDate(s); ok {
			t.Fatalf("expected %q to fail, got %v", s, got)
		}
	}
	if _, ok := ParseDate("2020/01/31"); !ok {
		t.Fatalf("expected slash date to parse")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDateOfKeepsWrittenDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got := DateOf(time.Date(2020, 1, 31, 23, 30, 0, 0, loc))
	if !got.Equal(time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestPeriodEnds(t *testing.T) {
	d := time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)
	if got := MonthEnd(d); got.Day() != 29 || got.Month() != time.February {
		t.Fatalf("month end %v", got)
	}
	if got := QuarterEnd(d); got.Day() != 31 || got.Month() != time.March {
		t.Fatalf("quarter end %v", got)
	}
	if got := QuarterEnd(time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC)); got.Day() != 31 || got.Month() != time.December {
		t.Fatalf("q4 end %v", got)
	}
	if got := YearEnd(d); got.Month() != time.December || got.Day() != 31 {
		t.Fatalf("year end %v", got)
	}
}

func TestParseFloat(t *testing.T) {
	cases := map[string]struct {
		want float64
		ok   bool
	}{
		"102.5":     {102.5, true},
		" 1,234.5 ": {1234.5, true},
		".":         {0, false},
		"":          {0, false},
		"NaN":       {0, false},
		"Inf":       {0, false},
		"abc":       {0, false},
	}
	for in, c := range cases {
		got, ok := ParseFloat(in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseFloat(%q) = %v,%v want %v,%v", in, got, ok, c.want, c.ok)
		}
	}
}
