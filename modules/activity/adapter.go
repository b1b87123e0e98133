package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort reads the activity feed.
type ActivityPort interface {
	List(ctx context.Context, taskID uint, limit int) ([]Entry, error)
}

// ActivityAdapter implements ActivityPort using the service container.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

var _ ActivityPort = (*ActivityAdapter)(nil)

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(container mono.ServiceContainer) *ActivityAdapter {
	return &ActivityAdapter{container: container}
}

func (a *ActivityAdapter) List(ctx context.Context, taskID uint, limit int) ([]Entry, error) {
	req := ListRequest{TaskID: taskID, Limit: limit}
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListActivity,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListActivity, err)
	}
	return resp.Entries, nil
}
