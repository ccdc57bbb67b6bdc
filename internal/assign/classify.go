package assign

import (
	"math"
	"time"

	"assigntrack/internal/model"
)

// Classify derives the priority label from the whole-day floor of the
// time remaining until due. The window filter keeps daysLeft >= 0 in
// practice, but negative values still classify (as High).
//
// Note: the plain duration floor can shift by a day across a DST
// transition. Kept as-is so labels stay consistent with rows already on
// the sheet.
func Classify(due, now time.Time) model.Priority {
	daysLeft := int(math.Floor(due.Sub(now).Hours() / 24))
	switch {
	case daysLeft <= 4:
		return model.PriorityHigh
	case daysLeft <= 9:
		return model.PriorityStandard
	default:
		return model.PriorityLow
	}
}
