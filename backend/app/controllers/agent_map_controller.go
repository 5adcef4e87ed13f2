package controllers

import (
	"fmt"
	"net/http"

	"compliance-feed/backend/app/agentmap"
	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/history"
	"compliance-feed/backend/app/services"
)

type SnapshotSource interface {
	Snapshot() *agentmap.Snapshot
}

type AgentMapController struct {
	Agents SnapshotSource
}

func NewAgentMapController(agents SnapshotSource) *AgentMapController {
	return &AgentMapController{Agents: agents}
}

// Get handles GET /debug/dataagentmap[?agent=<id>].
func (c *AgentMapController) Get(w http.ResponseWriter, r *http.Request) {
	snap := c.Agents.Snapshot()
	raw := r.URL.Query().Get("agent")
	if raw == "" {
		writeJSON(w, http.StatusOK, dto.AgentMapResponse{Version: snap.Version, Agents: snap.Agents()})
		return
	}
	id, err := history.ParseAgentID(raw)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", services.ErrInvalidRequest, err))
		return
	}
	agent, ok := snap.Lookup(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dto.AgentMapResponse{Version: snap.Version, Agents: []*agentmap.AgentInfo{agent}})
}
