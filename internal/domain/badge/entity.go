package badge

import (
	"sort"
	"time"
)

// Badge is a catalog entry unlocked by reaching PointsRequired
type Badge struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	Icon           string    `db:"icon" json:"icon"`
	PointsRequired int       `db:"points_required" json:"points_required"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// EarnedBadge is a badge together with the time the user got it
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `db:"earned_at" json:"earned_at"`
}

// Qualifying returns the catalog badges unlocked by points that are not in
// earned, ordered by threshold.
func Qualifying(points int, earned map[int64]bool, catalog []Badge) []Badge {
	var out []Badge
	for _, b := range catalog {
		if b.PointsRequired <= points && !earned[b.ID] {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PointsRequired < out[j].PointsRequired
	})
	return out
}
