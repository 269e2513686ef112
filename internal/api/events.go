package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/audionode/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for topology changes, reconciliation results, and volume adjustments",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"topology-changed":    events.TopologyChangedEvent{},
		"reconcile-completed": events.ReconcileCompletedEvent{},
		"reconcile-failed":    events.ReconcileFailedEvent{},
		"volume-adjusted":     events.VolumeAdjustedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.TopologyChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ReconcileCompletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ReconcileFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.VolumeAdjustedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
