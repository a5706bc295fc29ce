package reminder

import (
	"strconv"
	"strings"
	"time"
)

// PlaceholderDescription is used when the text carries no task description
// besides the time expression.
const PlaceholderDescription = "Reminder"

// Trigger tokens. The bot understands both the English tokens and their
// Russian originals; everything else is out of scope.
var (
	relativeTokens = []string{"through", "через"}
	tomorrowTokens = []string{"tomorrow", "завтра"}
	clockTokens    = []string{"at ", "в "}

	unitTokens = []struct {
		tokens []string
		unit   time.Duration
	}{
		{tokens: []string{"minute", "минут"}, unit: time.Minute},
		{tokens: []string{"hour", "час"}, unit: time.Hour},
		{tokens: []string{"day", "день"}, unit: 24 * time.Hour},
	}
)

// timeMatcher is one pattern family: a pure function that either produces an
// absolute timestamp or reports no match. Families never return errors.
type timeMatcher func(text string, now time.Time) (time.Time, bool)

// Families are tried in this order; the first match wins and there is no
// backtracking across families.
var timeMatchers = []timeMatcher{
	matchRelativeDuration,
	matchTomorrow,
	matchClockTime,
	matchBareMinutes,
}

// Parse converts a free-form time expression into an absolute timestamp.
// Input is case-folded and trimmed before matching. It reports false when no
// pattern family matched; it never fails in any other way.
func Parse(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, match := range timeMatchers {
		if due, ok := match(text, now); ok {
			return due, true
		}
	}
	return time.Time{}, false
}

// matchRelativeDuration handles "through N minutes|hours|days" (через N
// минут/часов/дней). The quantity is the last whitespace field before the
// unit token, with non-digit characters stripped.
func matchRelativeDuration(text string, now time.Time) (time.Time, bool) {
	if !containsAny(text, relativeTokens) {
		return time.Time{}, false
	}
	for _, u := range unitTokens {
		idx := indexAny(text, u.tokens)
		if idx < 0 {
			continue
		}
		n, ok := lastNumberBefore(text[:idx])
		if !ok {
			continue
		}
		return now.Add(time.Duration(n) * u.unit), true
	}
	return time.Time{}, false
}

// matchTomorrow handles "tomorrow at HH:MM" (завтра в HH:MM). Without an
// explicit HH:MM the family does not match.
func matchTomorrow(text string, now time.Time) (time.Time, bool) {
	if !containsAny(text, tomorrowTokens) {
		return time.Time{}, false
	}
	part := text
	if idx := lastIndexAny(text, clockTokens); idx >= 0 {
		part = text[idx:]
	}
	hour, minute, ok := scanClock(part)
	if !ok {
		return time.Time{}, false
	}
	d := now.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location()), true
}

// matchClockTime handles "at HH:MM" (в HH:MM), meaning the next occurrence
// of that time of day.
func matchClockTime(text string, now time.Time) (time.Time, bool) {
	triggered := false
	for _, tok := range clockTokens {
		if strings.HasPrefix(text, tok) || strings.Contains(text, " "+tok) {
			triggered = true
			break
		}
	}
	if !triggered {
		return time.Time{}, false
	}
	hour, minute, ok := scanClock(text)
	if !ok {
		return time.Time{}, false
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !due.After(now) {
		due = due.AddDate(0, 0, 1)
	}
	return due, true
}

// matchBareMinutes handles a bare integer, interpreted as a minute count.
func matchBareMinutes(text string, now time.Time) (time.Time, bool) {
	if text == "" || !isAllDigits(text) {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return time.Time{}, false
	}
	return now.Add(time.Duration(n) * time.Minute), true
}

// Extract returns the task description: the text strictly before the first
// trigger token (scanned case-folded, sliced from the original text), or the
// placeholder when nothing is left.
func Extract(text string) string {
	lower := strings.ToLower(text)
	for _, group := range [][]string{relativeTokens, tomorrowTokens, clockTokens} {
		idx := indexAny(lower, group)
		if idx < 0 {
			continue
		}
		if desc := strings.TrimSpace(text[:idx]); desc != "" {
			return desc
		}
		return PlaceholderDescription
	}
	return PlaceholderDescription
}

// ---- helpers ----

func containsAny(s string, tokens []string) bool {
	return indexAny(s, tokens) >= 0
}

// indexAny returns the smallest index of any token occurrence, or -1.
func indexAny(s string, tokens []string) int {
	best := -1
	for _, tok := range tokens {
		if idx := strings.Index(s, tok); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

// lastIndexAny returns the index just after the last occurrence of any
// token, or -1.
func lastIndexAny(s string, tokens []string) int {
	best := -1
	for _, tok := range tokens {
		if idx := strings.LastIndex(s, tok); idx >= 0 && idx+len(tok) > best {
			best = idx + len(tok)
		}
	}
	return best
}

// lastNumberBefore extracts the digits from the last whitespace field of s.
func lastNumberBefore(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	var b strings.Builder
	for _, r := range fields[len(fields)-1] {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// scanClock pulls an HH:MM token out of free text: keep digits and colons,
// require exactly one colon, validate ranges. Pure digit runs without a
// colon are not a time of day.
func scanClock(s string) (hour, minute int, ok bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ':' {
			b.WriteRune(r)
		}
	}
	parts := strings.Split(b.String(), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
