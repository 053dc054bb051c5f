package text

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize("  <b>hello</b> "))
	assert.Equal(t, "", Sanitize("<script>alert(1)</script>"))
	assert.NotContains(t, Sanitize(`<img src=x onerror="alert(1)">hi`), "onerror")
	assert.Equal(t, "x < y && y > z", Sanitize("x < y && y > z"))
	assert.Equal(t, `Tom's "Q&A"`, Sanitize(`<i>Tom's</i> "Q&A"`))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-1 * time.Minute), "1 minute ago"},
		{now.Add(-45 * time.Minute), "45 minutes ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-26 * time.Hour), "1 day ago"},
		{now.Add(-6 * 24 * time.Hour), "6 days ago"},
		{now.Add(-30 * 24 * time.Hour), "Apr 20, 2024"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TimeAgo(c.at, now))
	}
}
