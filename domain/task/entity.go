package task

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format of a task's due date.
const DateLayout = "2006-01-02"

var (
	// ErrNameRequired is returned when a task has no name.
	ErrNameRequired = errors.New("task name is required")
	// ErrDateRequired is returned when a task has no due date.
	ErrDateRequired = errors.New("task date is required")
	// ErrInvalidDate is returned when a due date cannot be parsed.
	ErrInvalidDate = errors.New("task date must be YYYY-MM-DD or RFC 3339")
)

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          string    `gorm:"primaryKey;type:text"`
	UserID      string    `gorm:"not null;index;type:text"`
	Name        string    `gorm:"not null;type:text"`
	Type        string    `gorm:"type:text;index"`
	Date        time.Time `gorm:"not null;index"`
	Description string    `gorm:"type:text"`
	Completed   bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and truncates it
// to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrDateRequired
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders a due date in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Type        *string
	Date        *time.Time
	Description *string
	Completed   *bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Date == nil && p.Description == nil && p.Completed == nil
}

// Validate checks the fields being set.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrDateRequired
	}
	return nil
}

// Columns maps the patch to column updates.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, 5)
	if p.Name != nil {
		cols["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		cols["type"] = *p.Type
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	return cols
}

// TypeCount is a per-type tally for dashboard statistics.
type TypeCount struct {
	Type      string `json:"type"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}
