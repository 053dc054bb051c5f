// Package text holds helpers for user-supplied text shown back to other users.
package text

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Sanitize strips all markup and trims surrounding whitespace.
// Literal characters such as & and < are kept as typed; escaping is left
// to whoever renders the text.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// TimeAgo renders a coarse relative time ("5 minutes ago").
// Anything older than a week is shown as a date.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
