package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus("pending"))
	assert.True(t, ValidStatus("in-progress"))
	assert.True(t, ValidStatus("resolved"))
	assert.False(t, ValidStatus("closed"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Pending"))
}

func TestApplyStatusUpdate(t *testing.T) {
	record := FeedbackRecord{Status: StatusPending}
	comment := "under review"
	ts := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	record.ApplyStatusUpdate(StatusUpdate{
		Status:       StatusInProgress,
		AdminComment: &comment,
		UpdatedAt:    ts,
	})

	assert.Equal(t, StatusInProgress, record.Status)
	require.NotNil(t, record.AdminComment)
	assert.Equal(t, comment, *record.AdminComment)
	require.NotNil(t, record.UpdatedAt)
	assert.Equal(t, ts, *record.UpdatedAt)
	assert.Equal(t, "Mar 14, 2026 09:30", record.UpdatedAtDisplay)

	// A later update without a comment keeps the existing one.
	record.ApplyStatusUpdate(StatusUpdate{Status: StatusResolved, UpdatedAt: ts.Add(time.Hour)})
	assert.Equal(t, StatusResolved, record.Status)
	require.NotNil(t, record.AdminComment)
	assert.Equal(t, comment, *record.AdminComment)
}

func TestFilterOffset(t *testing.T) {
	assert.Equal(t, 0, FeedbackFilter{Page: 1, Limit: 50}.Offset())
	assert.Equal(t, 50, FeedbackFilter{Page: 2, Limit: 50}.Offset())
	assert.Equal(t, 6, FeedbackFilter{Page: 3, Limit: 3}.Offset())
}
