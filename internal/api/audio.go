package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audionode/internal/api/models"
	"github.com/smazurov/audionode/internal/reconciler"
)

// registerAudioRoutes sets up endpoint, card, reconcile, status, and volume
// routes.
func (s *Server) registerAudioRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-endpoints",
		Method:      http.MethodGet,
		Path:        "/api/endpoints",
		Summary:     "List endpoints",
		Description: "List output sinks currently known to the sound server",
		Tags:        []string{"audio"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.EndpointsResponse, error) {
		sinks, err := s.options.SoundServer.ListSinks(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list sinks", err)
		}

		info, err := s.options.SoundServer.Info(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to query sound server", err)
		}

		combined := reconciler.CombinedSinkName
		if s.options.Reconciler != nil {
			combined = s.options.Reconciler.CombinedName()
		}

		endpoints := make([]models.Endpoint, 0, len(sinks))
		for _, sink := range sinks {
			endpoints = append(endpoints, models.Endpoint{
				Index:     sink.Index,
				Name:      sink.Name,
				State:     sink.State,
				IsDefault: sink.Name == info.DefaultSinkName,
				Synthetic: sink.Name == combined || sink.Name == reconciler.FallbackSinkName,
			})
		}

		return &models.EndpointsResponse{
			Body: models.EndpointsData{
				Endpoints:   endpoints,
				DefaultSink: info.DefaultSinkName,
				Count:       len(endpoints),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-cards",
		Method:      http.MethodGet,
		Path:        "/api/cards",
		Summary:     "List sound cards",
		Description: "List ALSA sound cards detected on the node",
		Tags:        []string{"audio"},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.SoundCardsResponse, error) {
		cards, err := s.options.CardLister()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list sound cards", err)
		}

		out := make([]models.SoundCard, 0, len(cards))
		for _, card := range cards {
			out = append(out, models.SoundCard{
				Number: card.Number,
				ID:     card.ID,
				Name:   card.Name,
				Driver: card.Driver,
				IsUSB:  card.IsUSB,
			})
		}

		return &models.SoundCardsResponse{
			Body: models.SoundCardsData{
				Cards: out,
				Count: len(out),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "trigger-reconcile",
		Method:      http.MethodPost,
		Path:        "/api/reconcile",
		Summary:     "Reconcile sinks",
		Description: "Run one sink reconciliation pass immediately",
		Tags:        []string{"audio"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.ReconcileResponse, error) {
		res, err := s.options.Reconciler.Run(ctx)
		if err != nil {
			var stepErr *reconciler.StepError
			if errors.As(err, &stepErr) {
				return nil, huma.Error500InternalServerError("Reconciliation failed at "+stepErr.Step, err)
			}
			return nil, huma.Error500InternalServerError("Reconciliation failed", err)
		}

		return &models.ReconcileResponse{
			Body: models.ReconcileData{
				Generation: res.Generation,
				Before:     res.Before,
				After:      res.After,
				Members:    res.Members,
				Combined:   res.Combined,
				Stale:      res.Stale,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Routing status",
		Description: "Summarize the current output routing state",
		Tags:        []string{"audio"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		info, err := s.options.SoundServer.Info(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to query sound server", err)
		}

		sinks, err := s.options.SoundServer.ListSinks(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list sinks", err)
		}

		combined := reconciler.CombinedSinkName
		if s.options.Reconciler != nil {
			combined = s.options.Reconciler.CombinedName()
		}

		real := 0
		combinedActive := false
		for _, sink := range sinks {
			switch sink.Name {
			case combined:
				combinedActive = true
			case reconciler.FallbackSinkName:
			default:
				real++
			}
		}

		return &models.StatusResponse{
			Body: models.StatusData{
				ServerName:     info.ServerName,
				DefaultSink:    info.DefaultSinkName,
				EndpointCount:  real,
				CombinedActive: combinedActive,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "adjust-volume",
		Method:      http.MethodPost,
		Path:        "/api/volume/adjust",
		Summary:     "Adjust USB volumes",
		Description: "Set all USB sound card mixer controls to the configured level",
		Tags:        []string{"audio"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.VolumeAdjustResponse, error) {
		if err := s.options.VolumeAdjuster.Run(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Volume adjustment failed", err)
		}

		return &models.VolumeAdjustResponse{
			Body: models.VolumeAdjustData{
				Message: "USB card volumes adjusted",
			},
		}, nil
	})
}
