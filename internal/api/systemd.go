package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audionode/internal/api/models"
)

func (s *Server) registerSystemdRoutes() {
	if s.options.SystemdManager == nil {
		return
	}

	serviceName := s.options.SoundServiceName

	huma.Register(s.api, huma.Operation{
		OperationID: "get-sound-server-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/sound-server/status",
		Summary:     "Sound Server Service Status",
		Description: "Get sound server systemd service status",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := s.options.SystemdManager.GetServiceStatus(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{
				Service: serviceName,
				Status:  status,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-sound-server",
		Method:      http.MethodPost,
		Path:        "/api/systemd/sound-server/restart",
		Summary:     "Restart Sound Server",
		Description: "Restart the sound server systemd service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		err := s.options.SystemdManager.RestartService(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to restart service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "restart",
				Success: true,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-sound-server",
		Method:      http.MethodPost,
		Path:        "/api/systemd/sound-server/stop",
		Summary:     "Stop Sound Server",
		Description: "Stop the sound server systemd service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		err := s.options.SystemdManager.StopService(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to stop service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "stop",
				Success: true,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-sound-server",
		Method:      http.MethodPost,
		Path:        "/api/systemd/sound-server/start",
		Summary:     "Start Sound Server",
		Description: "Start the sound server systemd service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		err := s.options.SystemdManager.StartService(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to start service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "start",
				Success: true,
			},
		}, nil
	})
}
