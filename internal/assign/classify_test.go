package assign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"assigntrack/internal/model"
)

func TestClassifyBoundaries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  time.Time
		want model.Priority
	}{
		{"due now", now, model.PriorityHigh},
		{"overdue", now.Add(-48 * time.Hour), model.PriorityHigh},
		{"under a day", now.Add(6 * time.Hour), model.PriorityHigh},
		{"exactly 4 days", now.AddDate(0, 0, 4), model.PriorityHigh},
		{"just under 5 days", now.AddDate(0, 0, 5).Add(-time.Second), model.PriorityHigh},
		{"exactly 5 days", now.AddDate(0, 0, 5), model.PriorityStandard},
		{"exactly 9 days", now.AddDate(0, 0, 9), model.PriorityStandard},
		{"just under 10 days", now.AddDate(0, 0, 10).Add(-time.Second), model.PriorityStandard},
		{"exactly 10 days", now.AddDate(0, 0, 10), model.PriorityLow},
		{"far out", now.AddDate(0, 0, 30), model.PriorityLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.due, now))
		})
	}
}
