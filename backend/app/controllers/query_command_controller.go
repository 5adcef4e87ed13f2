package controllers

import (
	"context"
	"net/http"

	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/services"
)

const ClientVersionHeader = "X-Client-Version"

type TargetResolver interface {
	Resolve(ctx context.Context, req services.ResolveRequest) (services.ResolveResult, error)
}

type QueryCommandController struct {
	Resolver TargetResolver
}

func NewQueryCommandController(resolver TargetResolver) *QueryCommandController {
	return &QueryCommandController{Resolver: resolver}
}

// Query handles GET /debug/querycommand/{commandId}/{agentId}/{assetGroupId}.
// Every response code is a 200 except CommandNotQueryable, which is 405.
func (c *QueryCommandController) Query(w http.ResponseWriter, r *http.Request) {
	res, err := c.Resolver.Resolve(r.Context(), services.ResolveRequest{
		CommandID:     r.PathValue("commandId"),
		AgentID:       r.PathValue("agentId"),
		AssetGroupID:  r.PathValue("assetGroupId"),
		ClientVersion: r.Header.Get(ClientVersionHeader),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Code == services.ResponseCommandNotQueryable {
		status = http.StatusMethodNotAllowed
	}
	writeJSON(w, status, dto.QueryCommandResponse{ResponseCode: string(res.Code), Command: res.Command})
}
