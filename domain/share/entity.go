package share

import "time"

// SharedTask is a one-way notification record: a copy of task-like fields sent
// by a user to an email address. It does not reference any stored task.
type SharedTask struct {
	ID            string    `gorm:"primaryKey;type:text"`
	SenderID      string    `gorm:"not null;index;type:text"`
	ReceiverEmail string    `gorm:"not null;type:text"`
	Name          string    `gorm:"not null;type:text"`
	Type          string    `gorm:"not null;type:text"`
	Deadline      string    `gorm:"not null;type:text"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// TableName returns the table name for the SharedTask entity.
func (SharedTask) TableName() string {
	return "shared_tasks"
}
