// Package projection derives per-viewer views from a snapshot of the event
// collection. Every function is a pure transform, safe to recompute on every
// poll or render.
package projection

import (
	"sort"
	"strings"
	"time"

	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/rules"
)

// byStart orders ascending by (date, startTime). Dates and zero-padded HH:MM
// strings sort lexicographically in chronological order.
func byStart(a, b model.Event) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.StartTime < b.StartTime
}

// UpcomingFeed returns the events a viewer can still join or browse: cancelled
// and expired events are dropped, the search text is matched case-insensitively
// against title and location (empty search matches all), and the result is
// sorted ascending by (date, startTime).
func UpcomingFeed(events []model.Event, now time.Time, search string) []model.Event {
	needle := strings.ToLower(search)
	feed := make([]model.Event, 0, len(events))
	for _, e := range events {
		if rules.Cancelled(e) || rules.Expired(e, now) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Location), needle) {
			continue
		}
		feed = append(feed, e)
	}
	sort.SliceStable(feed, func(i, j int) bool { return byStart(feed[i], feed[j]) })
	return feed
}

// MyEvents returns the events the user participates in, regardless of status.
// Cancelled and expired events are included; callers partition further.
func MyEvents(events []model.Event, userID string) []model.Event {
	mine := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.HasParticipant(userID) {
			mine = append(mine, e)
		}
	}
	return mine
}

// ActiveVsArchive partitions events by expiry. Active events sort ascending by
// (date, startTime); archived events sort descending, most recently ended
// first, because the archive is a retrospective view.
func ActiveVsArchive(events []model.Event, now time.Time) (active, archive []model.Event) {
	active = make([]model.Event, 0, len(events))
	archive = make([]model.Event, 0, len(events))
	for _, e := range events {
		if rules.Expired(e, now) {
			archive = append(archive, e)
		} else {
			active = append(active, e)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return byStart(active[i], active[j]) })
	sort.SliceStable(archive, func(i, j int) bool { return byStart(archive[j], archive[i]) })
	return active, archive
}
