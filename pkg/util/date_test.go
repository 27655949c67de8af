package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-01-15T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 1, 15, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 1, 15, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2026-01-15", time.UTC)
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, ok := ParseDay("15/01/2026", time.UTC); ok {
		t.Fatalf("expected failure on non-ISO day")
	}
	if _, ok := ParseDay("", time.UTC); ok {
		t.Fatalf("expected failure on empty day")
	}
}

func TestTimeOfDayOn(t *testing.T) {
	tod, err := ParseTimeOfDay("11:00:00")
	if err != nil {
		t.Fatal(err)
	}
	d := time.Date(2026, 1, 15, 17, 30, 0, 0, time.UTC)
	got := tod.On(d)
	want := time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTimeOfDayBefore(t *testing.T) {
	a, _ := ParseTimeOfDay("00:00:00")
	b, _ := ParseTimeOfDay("22:30:00")
	if !a.Before(b) {
		t.Fatalf("midnight should sort before evening")
	}
	if b.Before(b) {
		t.Fatalf("equal times are not before each other")
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	if _, err := ParseTimeOfDay("25:00:00"); err == nil {
		t.Fatalf("expected error for hour out of range")
	}
}
