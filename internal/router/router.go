package router

import (
	"context"

	"github.com/MahMoudMostaAfa/azkar/internal/coordinator"
)

// Ack is the reply for commands that carry no data.
type Ack struct {
	Success bool `json:"success"`
}

// Router dispatches decoded commands to the coordinator.
type Router struct {
	coord *coordinator.Coordinator
}

// New creates a router over the coordinator.
func New(coord *coordinator.Coordinator) *Router {
	return &Router{coord: coord}
}

// Dispatch executes a command and returns its reply. The second return is
// false for commands the router does not handle; by convention such
// messages get no reply at all.
func (r *Router) Dispatch(ctx context.Context, cmd Command) (any, bool) {
	switch c := cmd.(type) {
	case GetState:
		return r.coord.Snapshot(ctx), true
	case PlaySingle:
		r.coord.StartSingle(ctx, c.Locator, c.ItemIndex)
		return Ack{Success: true}, true
	case StopSingle:
		r.coord.StopSingle(ctx)
		return Ack{Success: true}, true
	case StartQueue:
		r.coord.StartQueue(ctx, c.Items, c.CategoryKey)
		return Ack{Success: true}, true
	case StopQueue:
		r.coord.StopQueue(ctx)
		return Ack{Success: true}, true
	default:
		return nil, false
	}
}

// DispatchRaw decodes a wire message and dispatches it. Unrecognized or
// malformed messages yield (nil, false): a silent no-op.
func (r *Router) DispatchRaw(ctx context.Context, raw []byte) (any, bool) {
	cmd, err := Decode(raw)
	if err != nil {
		return nil, false
	}
	return r.Dispatch(ctx, cmd)
}
