package views

import (
	"sort"
	"time"

	"github.com/sasa-gamer47/mindclone/memory"
)

const monthLabelLayout = "January 2006"

// TimelineGroup is one dated bucket of the timeline, labelled relative to
// the reference time ("Today", "Yesterday", "This Week", "This Month") or
// with a month-year label for anything older.
type TimelineGroup struct {
	Label    string
	Memories []memory.Memory
}

// BuildTimeline buckets the given memories by creation date relative to now
// and orders the buckets newest-first. Records keep their input order within
// a bucket, so passing a newest-first slice yields newest-first buckets.
func BuildTimeline(memories []memory.Memory, now time.Time) []TimelineGroup {
	byLabel := make(map[string][]memory.Memory)
	var order []string

	for _, m := range memories {
		label := bucketLabel(time.UnixMilli(m.CreatedAt), now)
		if _, seen := byLabel[label]; !seen {
			order = append(order, label)
		}
		byLabel[label] = append(byLabel[label], m)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return bucketAnchor(order[i], now).After(bucketAnchor(order[j], now))
	})

	groups := make([]TimelineGroup, 0, len(order))
	for _, label := range order {
		groups = append(groups, TimelineGroup{Label: label, Memories: byLabel[label]})
	}
	return groups
}

// bucketLabel names the bucket for a creation time. Day boundaries use the
// calendar date, not a rolling 24 hours, so a memory from 23:59 yesterday is
// "Yesterday" even one minute later.
func bucketLabel(created, now time.Time) string {
	day := startOfDay(created)
	dayDiff := int(startOfDay(now).Sub(day).Hours() / 24)

	switch {
	case dayDiff == 0:
		return "Today"
	case dayDiff == 1:
		return "Yesterday"
	case dayDiff < 7:
		return "This Week"
	}

	if !day.Before(startOfMonth(now)) {
		return "This Month"
	}
	return created.Format(monthLabelLayout)
}

// bucketAnchor maps a label to a synthetic sort date so that mixed relative
// and month-year labels order chronologically.
func bucketAnchor(label string, now time.Time) time.Time {
	switch label {
	case "Today":
		return now
	case "Yesterday":
		return now.Add(-24 * time.Hour)
	case "This Week":
		return now.Add(-48 * time.Hour)
	case "This Month":
		return startOfMonth(now)
	}
	anchor, err := time.ParseInLocation(monthLabelLayout, label, now.Location())
	if err != nil {
		return time.Time{}
	}
	return anchor
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
