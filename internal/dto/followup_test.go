package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yutasato/campus-crm-api/internal/models"
)

func TestToFollowupDTO_OverdueDerivedFromClock(t *testing.T) {
	due := time.Date(2026, 3, 13, 9, 30, 0, 0, time.UTC)
	followup := models.Followup{ID: 1, DueAt: due, Status: models.FollowupPending}

	before := due.Add(-time.Hour)
	after := due.Add(time.Hour)

	// The same row flips overdue purely by when it is read
	assert.False(t, ToFollowupDTO(followup, before).IsOverdue)
	assert.True(t, ToFollowupDTO(followup, after).IsOverdue)

	// A closed followup is never overdue, however late
	followup.Status = models.FollowupDone
	assert.False(t, ToFollowupDTO(followup, after).IsOverdue)

	followup.Status = models.FollowupSkipped
	assert.False(t, ToFollowupDTO(followup, after).IsOverdue)
}

func TestToFollowupDTOs_SingleClockReading(t *testing.T) {
	now := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	followups := []models.Followup{
		{ID: 1, DueAt: now.Add(-time.Minute), Status: models.FollowupPending},
		{ID: 2, DueAt: now.Add(time.Minute), Status: models.FollowupPending},
	}

	dtos := ToFollowupDTOs(followups, now)
	assert.Len(t, dtos, 2)
	assert.True(t, dtos[0].IsOverdue)
	assert.False(t, dtos[1].IsOverdue)
}
