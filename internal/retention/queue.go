package retention

import (
	"math"
	"sort"
	"time"
)

// QueueEntry is a review item with its computed urgency.
type QueueEntry struct {
	State   State
	Urgency float64
	Overdue bool
}

// Urgency scores how badly an item needs review. Overdue items score by
// forgetting risk plus how long they have waited; future items score
// negatively by how far off they are.
func Urgency(stability, daysOverdue float64) float64 {
	if daysOverdue > 0 {
		retention := math.Exp(-daysOverdue / stability)
		return (1-retention)*100 + daysOverdue
	}
	return daysOverdue
}

// ReviewQueue sorts items by urgency, most urgent first, and returns at
// most limit entries. Items without a scheduled review are skipped.
func ReviewQueue(items []State, now time.Time, limit int) []QueueEntry {
	entries := make([]QueueEntry, 0, len(items))
	for _, item := range items {
		if item.NextReviewAt.IsZero() || item.Stability <= 0 {
			continue
		}

		daysOverdue := now.Sub(item.NextReviewAt).Hours() / 24
		entries = append(entries, QueueEntry{
			State:   item,
			Urgency: Urgency(item.Stability, daysOverdue),
			Overdue: daysOverdue > 0,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Urgency > entries[j].Urgency
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
