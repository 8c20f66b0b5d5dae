package models

import "time"

// FeedbackStatus enumerates the workflow states of a feedback record.
type FeedbackStatus string

const (
	StatusPending    FeedbackStatus = "pending"
	StatusInProgress FeedbackStatus = "in-progress"
	StatusResolved   FeedbackStatus = "resolved"
)

// ValidStatus reports whether s is one of the three workflow states.
func ValidStatus(s string) bool {
	switch FeedbackStatus(s) {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	default:
		return false
	}
}

// DisplayTimeLayout renders timestamps for human consumption. The display
// variants are derived, never authoritative.
const DisplayTimeLayout = "Jan 02, 2006 15:04"

// FeedbackRecord is a single feedback submission. Optional student fields
// are pointers so that absent values are omitted from both stored and wire
// representations rather than serialised as empty strings.
type FeedbackRecord struct {
	ID          string         `json:"id"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
	Text        string         `json:"text"`
	Urgency     string         `json:"urgency"`

	Suggestions *string `json:"suggestions,omitempty"`
	StudentName *string `json:"studentName,omitempty"`
	RollNo      *string `json:"rollNo,omitempty"`
	Department  *string `json:"department,omitempty"`
	CourseNo    *string `json:"courseNo,omitempty"`

	Status       FeedbackStatus `json:"status"`
	AdminComment *string        `json:"adminComment,omitempty"`

	CreatedAt        time.Time  `json:"createdAt"`
	CreatedAtDisplay string     `json:"createdAtDisplay,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
	UpdatedAtDisplay string     `json:"updatedAtDisplay,omitempty"`
}

// FeedbackFilter captures the list criteria shared by every backend:
// exact match on status/category plus a case-insensitive substring match
// against text or suggestions.
type FeedbackFilter struct {
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

// Offset returns the number of records skipped before the current page.
func (f FeedbackFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// StatusUpdate describes a pending status mutation. A nil AdminComment
// leaves any prior comment untouched.
type StatusUpdate struct {
	Status       FeedbackStatus
	AdminComment *string
	UpdatedAt    time.Time
}

// ApplyStatusUpdate mutates the record in place. Both storage backends use
// this so a status change means exactly the same thing everywhere.
func (r *FeedbackRecord) ApplyStatusUpdate(u StatusUpdate) {
	r.Status = u.Status
	ts := u.UpdatedAt
	r.UpdatedAt = &ts
	r.UpdatedAtDisplay = ts.Format(DisplayTimeLayout)
	if u.AdminComment != nil {
		comment := *u.AdminComment
		r.AdminComment = &comment
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}
