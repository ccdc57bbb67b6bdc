package assign

import "assigntrack/internal/model"

// Reconcile merges a freshly extracted batch against the destination's
// existing titles and produces an idempotent write plan.
//
// Matching is by exact title text against the snapshot, first occurrence
// winning when the sheet holds duplicates. A matched record becomes a
// refresh of that row's derived columns; everything else appends after
// the snapshot's last row, in batch order. Running the same batch twice
// therefore yields zero appends the second time.
//
// Title text, not DedupeKey, is deliberately the identity here: the
// sheet accumulated rows under that policy and switching keys would
// duplicate every existing row once.
func Reconcile(records []model.AssignmentRecord, existingTitles []string) model.Plan {
	position := make(map[string]int, len(existingTitles))
	for i, title := range existingTitles {
		if _, ok := position[title]; !ok {
			position[title] = i + 1
		}
	}

	var plan model.Plan
	next := len(existingTitles) + 1
	for _, rec := range records {
		if pos, ok := position[rec.Title]; ok {
			plan.Refreshes = append(plan.Refreshes, model.Refresh{Position: pos, Record: rec})
			continue
		}
		plan.Appends = append(plan.Appends, model.Append{Position: next, Record: rec})
		next++
	}
	return plan
}
