package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"launchline/internal/domain"
	"launchline/internal/engine"
)

type permitPath struct {
	LaunchID string `path:"id"`
	PermitID string `path:"permit_id"`
}

func registerPermits(api huma.API, h handlers) {
	e := h.e

	huma.Register(api, huma.Operation{
		OperationID: "list-permits",
		Method:      http.MethodGet,
		Path:        "/launches/{id}/permits",
		Summary:     "List permits of a launch",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *launchPath) (*struct {
		Body engine.PermitList `json:"body"`
	}, error) {
		list, err := e.ListPermits(ctx, input.LaunchID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.PermitList `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-permit",
		Method:        http.MethodPost,
		Path:          "/launches/{id}/permits",
		Summary:       "Add permit",
		Description:   "type, title, priority and estimatedProcessingDays are required. The readiness score is not recomputed.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		LaunchID string        `path:"id"`
		Body     PermitRequest `json:"body"`
	}) (*struct {
		Body domain.Permit `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		p, err := e.CreatePermit(ctx, input.LaunchID, input.Body.input())
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body domain.Permit `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-permit",
		Method:      http.MethodGet,
		Path:        "/launches/{id}/permits/{permit_id}",
		Summary:     "Get permit",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *permitPath) (*struct {
		Body domain.Permit `json:"body"`
	}, error) {
		p, err := e.GetPermit(ctx, input.LaunchID, input.PermitID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body domain.Permit `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-permit",
		Method:      http.MethodPatch,
		Path:        "/launches/{id}/permits/{permit_id}",
		Summary:     "Update permit",
		Description: "Partial update. Notes and corrective actions are appended. The launch is rescored.",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		LaunchID string              `path:"id"`
		PermitID string              `path:"permit_id"`
		Body     UpdatePermitRequest `json:"body"`
	}) (*struct {
		Body engine.PermitUpdate `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		res, err := e.UpdatePermit(ctx, input.LaunchID, input.PermitID, input.Body.patch())
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.PermitUpdate `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-permit",
		Method:      http.MethodDelete,
		Path:        "/launches/{id}/permits/{permit_id}",
		Summary:     "Delete permit",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *permitPath) (*struct {
		Body engine.PermitDeletion `json:"body"`
	}, error) {
		res, err := e.DeletePermit(ctx, input.LaunchID, input.PermitID)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body engine.PermitDeletion `json:"body"`
		}{Body: res}, nil
	})
}
