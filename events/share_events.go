package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskSharedEvent is emitted after a shared-task record has been stored.
// The notification module turns it into an email to ReceiverEmail.
type TaskSharedEvent struct {
	ShareID        string    `json:"share_id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	ReceiverEmail  string    `json:"receiver_email"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Deadline       string    `json:"deadline"`
	SharedAt       time.Time `json:"shared_at"`
}

// TaskSharedV1 is the typed event definition for shared tasks.
// Subject: events.share.v1.task-shared
var TaskSharedV1 = helper.EventDefinition[TaskSharedEvent](
	"share", "TaskShared", "v1",
)
