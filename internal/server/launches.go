package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"launchline/internal/domain"
	"launchline/internal/engine"
)

type launchPath struct {
	LaunchID string `path:"id"`
}

func registerLaunches(api huma.API, h handlers) {
	e := h.e

	huma.Register(api, huma.Operation{
		OperationID: "list-launches",
		Method:      http.MethodGet,
		Path:        "/launches",
		Summary:     "List launches",
		Description: "Filter by business type and by derived status (active, completed, overdue). An unknown status is ignored.",
	}, func(ctx context.Context, input *struct {
		Type   string `query:"type"`
		Status string `query:"status"`
	}) (*struct {
		Body engine.LaunchList `json:"body"`
	}, error) {
		list, err := e.ListLaunches(ctx, engine.LaunchFilter{Type: input.Type, Status: input.Status})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.LaunchList `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-launch",
		Method:        http.MethodPost,
		Path:          "/launches",
		Summary:       "Create launch",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateLaunchRequest `json:"body"`
	}) (*struct {
		Body domain.Launch `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		l, err := e.CreateLaunch(ctx, input.Body.input())
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body domain.Launch `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-launch",
		Method:      http.MethodGet,
		Path:        "/launches/{id}",
		Summary:     "Get launch with derived metadata",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *launchPath) (*struct {
		Body engine.LaunchView `json:"body"`
	}, error) {
		view, err := e.GetLaunch(ctx, input.LaunchID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.LaunchView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-launch",
		Method:      http.MethodPatch,
		Path:        "/launches/{id}",
		Summary:     "Update launch",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		LaunchID string              `path:"id"`
		Body     UpdateLaunchRequest `json:"body"`
	}) (*struct {
		Body domain.Launch `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		l, err := e.UpdateLaunch(ctx, input.LaunchID, input.Body.patch())
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body domain.Launch `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-launch",
		Method:      http.MethodDelete,
		Path:        "/launches/{id}",
		Summary:     "Delete launch and all of its permits",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *launchPath) (*struct {
		Body engine.DeletedLaunch `json:"body"`
	}, error) {
		res, err := e.DeleteLaunch(ctx, input.LaunchID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.DeletedLaunch `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rescore-launch",
		Method:      http.MethodPost,
		Path:        "/launches/{id}/readiness",
		Summary:     "Recompute readiness score",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *launchPath) (*struct {
		Body engine.LaunchScore `json:"body"`
	}, error) {
		res, err := e.RecomputeReadiness(ctx, input.LaunchID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.LaunchScore `json:"body"`
		}{Body: res}, nil
	})
}
