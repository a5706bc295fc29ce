package reminder

import (
	"testing"
	"time"
)

func TestParseRelativeDuration(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{name: "minutes", text: "call mom through 45 minutes", want: now.Add(45 * time.Minute)},
		{name: "hours", text: "do homework through 2 hours", want: now.Add(2 * time.Hour)},
		{name: "days", text: "through 3 days", want: now.Add(3 * 24 * time.Hour)},
		{name: "russian minutes", text: "проверить почту через 30 минут", want: now.Add(30 * time.Minute)},
		{name: "russian hours", text: "через 2 часа", want: now.Add(2 * time.Hour)},
		{name: "russian days", text: "через 1 день", want: now.Add(24 * time.Hour)},
		{name: "mixed case and padding", text: "  Through 10 MINUTES  ", want: now.Add(10 * time.Minute)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, now)
			if !ok {
				t.Fatalf("Parse(%q) did not match", tt.text)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseTomorrow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		now  time.Time
		text string
	}{
		{name: "morning now", now: time.Date(2026, 3, 14, 6, 30, 12, 500, time.UTC), text: "tomorrow at 09:05"},
		{name: "evening now", now: time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC), text: "tomorrow at 09:05"},
		{name: "russian", now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), text: "позвонить маме завтра в 09:05"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, tt.now)
			if !ok {
				t.Fatalf("Parse(%q) did not match", tt.text)
			}
			d := tt.now.AddDate(0, 0, 1)
			want := time.Date(d.Year(), d.Month(), d.Day(), 9, 5, 0, 0, time.UTC)
			if !got.Equal(want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.text, got, want)
			}
		})
	}
}

func TestParseTomorrowWithoutTimeDoesNotMatch(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	if _, ok := Parse("tomorrow", now); ok {
		t.Fatal("bare 'tomorrow' must not match")
	}
	if _, ok := Parse("завтра в 10", now); ok {
		t.Fatal("tomorrow without a colon time must not match")
	}
}

func TestParseClockTime(t *testing.T) {
	t.Parallel()

	t.Run("already passed today rolls to next day", func(t *testing.T) {
		now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
		got, ok := Parse("at 07:00", now)
		if !ok {
			t.Fatal("expected a match")
		}
		want := time.Date(2026, 3, 15, 7, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("still ahead today stays today", func(t *testing.T) {
		now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
		got, ok := Parse("at 07:00", now)
		if !ok {
			t.Fatal("expected a match")
		}
		want := time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("marker inside the sentence", func(t *testing.T) {
		now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
		got, ok := Parse("call the dentist at 18:30", now)
		if !ok {
			t.Fatal("expected a match")
		}
		want := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("seconds are zeroed", func(t *testing.T) {
		now := time.Date(2026, 3, 14, 6, 0, 42, 999, time.UTC)
		got, ok := Parse("в 07:15", now)
		if !ok {
			t.Fatal("expected a match")
		}
		if got.Second() != 0 || got.Nanosecond() != 0 {
			t.Fatalf("expected zeroed sub-minute fields, got %v", got)
		}
	})
}

func TestParseBareMinutes(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	got, ok := Parse("15", now)
	if !ok {
		t.Fatal("expected a match")
	}
	if want := now.Add(15 * time.Minute); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseNoMatch(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for _, text := range []string{
		"hello world",
		"",
		"   ",
		"through minutes",  // no quantity
		"at seven o'clock", // no HH:MM
		"12:30",            // clock time without a trigger token
		"15 minutes",       // unit without a trigger token
	} {
		if _, ok := Parse(text, now); ok {
			t.Errorf("Parse(%q) matched, want no match", text)
		}
	}
}

func TestParseFamilyOrder(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	// Relative duration wins over the clock-time family even when both could
	// trigger on the same text.
	got, ok := Parse("meet ann at 10:00 through 20 minutes", now)
	if !ok {
		t.Fatal("expected a match")
	}
	if want := now.Add(20 * time.Minute); !got.Equal(want) {
		t.Fatalf("got %v, want %v (relative family must win)", got, want)
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "before through", text: "call mom through 2 hours", want: "call mom"},
		{name: "time only", text: "through 2 hours", want: PlaceholderDescription},
		{name: "before tomorrow", text: "buy milk tomorrow at 10:00", want: "buy milk"},
		{name: "before at", text: "standup at 09:30", want: "standup"},
		{name: "russian", text: "позвонить маме через 2 часа", want: "позвонить маме"},
		{name: "no trigger", text: "15", want: PlaceholderDescription},
		{name: "keeps original case", text: "Call Mom through 2 hours", want: "Call Mom"},
		{name: "through beats at", text: "meet at the cafe through 1 hours", want: "meet at the cafe"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.text); got != tt.want {
				t.Fatalf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
