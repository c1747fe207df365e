package share

import (
	"time"

	domain "github.com/example/todo-app/domain/share"
)

// ShareTaskRequest is the request for sharing a task. The sender fields come
// from the authenticated identity.
type ShareTaskRequest struct {
	SenderID       string `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Deadline       string `json:"deadline"`
	ReceiverEmail  string `json:"receiver_email"`
}

// ListSharesRequest is the request for listing a sender's shares.
type ListSharesRequest struct {
	SenderID string `json:"sender_id"`
}

// ListSharesResponse holds a sender's shares, newest first.
type ListSharesResponse struct {
	Shares []SharedTaskResponse `json:"shares"`
}

// SharedTaskResponse is a shared-task record.
type SharedTaskResponse struct {
	ID            string    `json:"id"`
	SenderID      string    `json:"sender_id"`
	ReceiverEmail string    `json:"receiver_email"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Deadline      string    `json:"deadline"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSharedTaskResponse(s *domain.SharedTask) SharedTaskResponse {
	return SharedTaskResponse{
		ID:            s.ID,
		SenderID:      s.SenderID,
		ReceiverEmail: s.ReceiverEmail,
		Name:          s.Name,
		Type:          s.Type,
		Deadline:      s.Deadline,
		CreatedAt:     s.CreatedAt,
	}
}
