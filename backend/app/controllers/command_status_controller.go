package controllers

import (
	"context"
	"net/http"
	"strings"

	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/middleware"
	"compliance-feed/backend/app/services"
)

type StatusQuerier interface {
	ByCommandID(ctx context.Context, rawID string, opts services.QueryOptions) (*dto.CommandStatusResponse, error)
	ByFilter(ctx context.Context, q services.StatusQuery, opts services.QueryOptions) ([]dto.CommandStatusResponse, error)
}

type CommandStatusController struct {
	Status StatusQuerier
}

func NewCommandStatusController(status StatusQuerier) *CommandStatusController {
	return &CommandStatusController{Status: status}
}

// ByCommandID handles GET /debug/status/commandid/{commandId}.
func (c *CommandStatusController) ByCommandID(w http.ResponseWriter, r *http.Request) {
	opts := services.QueryOptions{Unredacted: middleware.WantsUnredacted(r)}
	resp, err := c.Status.ByCommandID(r.Context(), r.PathValue("commandId"), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Query handles GET /commandstatus/query.
func (c *CommandStatusController) Query(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := services.StatusQuery{
		SubjectType: qs.Get("subjectType"),
		SubjectID:   qs.Get("subjectId"),
		Requester:   qs.Get("requester"),
		Oldest:      qs.Get("oldest"),
	}
	for _, v := range qs["commandTypes"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.CommandTypes = append(q.CommandTypes, t)
			}
		}
	}
	opts := services.QueryOptions{Unredacted: middleware.WantsUnredacted(r)}
	out, err := c.Status.ByFilter(r.Context(), q, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(out) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
