package share

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	taskdomain "github.com/example/todo-app/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// SharePort is how other modules reach the share module.
type SharePort interface {
	ShareTask(ctx context.Context, req *ShareTaskRequest) (*SharedTaskResponse, error)
	ListShares(ctx context.Context, senderID string) ([]SharedTaskResponse, error)
}

type shareAdapter struct {
	container mono.ServiceContainer
}

// NewShareAdapter creates a new adapter for share services.
func NewShareAdapter(container mono.ServiceContainer) SharePort {
	if container == nil {
		panic("share adapter requires non-nil ServiceContainer")
	}
	return &shareAdapter{container: container}
}

func (a *shareAdapter) ShareTask(ctx context.Context, req *ShareTaskRequest) (*SharedTaskResponse, error) {
	var resp SharedTaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "share-task", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, translateError("share-task", err)
	}
	return &resp, nil
}

func (a *shareAdapter) ListShares(ctx context.Context, senderID string) ([]SharedTaskResponse, error) {
	req := ListSharesRequest{SenderID: senderID}
	var resp ListSharesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-shares", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, translateError("list-shares", err)
	}
	return resp.Shares, nil
}

var knownErrors = []error{
	ErrFieldsRequired,
	ErrInvalidReceiver,
	ErrSenderRequired,
	taskdomain.ErrInvalidDate,
}

func translateError(service string, err error) error {
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return known
		}
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}
