package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativePatterns maps human relative-time phrases to an offset from
// now. Months are approximated as 30-day units, matching the upstream's
// own display granularity.
var relativePatterns = []struct {
	re   *regexp.Regexp
	unit time.Duration
}{
	{regexp.MustCompile(`(\d+)\s*minute`), time.Minute},
	{regexp.MustCompile(`(\d+)\s*hour`), time.Hour},
	{regexp.MustCompile(`(\d+)\s*day`), 24 * time.Hour},
	{regexp.MustCompile(`(\d+)\s*week`), 7 * 24 * time.Hour},
	{regexp.MustCompile(`(\d+)\s*month`), 30 * 24 * time.Hour},
}

var justNowPattern = regexp.MustCompile(`just now|moments ago`)

// parseRelativeTime turns phrases like "2 days ago" into a concrete
// timestamp relative to now. Unrecognized text yields nil, which leaves
// the posted-at field unset rather than failing the card.
func parseRelativeTime(text string, now time.Time) *time.Time {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	for _, p := range relativePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		ts := now.Add(-time.Duration(n) * p.unit)
		return &ts
	}
	if justNowPattern.MatchString(text) {
		ts := now
		return &ts
	}
	return nil
}
