package router

import (
	"net/http"

	"compliance-feed/backend/app/controllers"
	"compliance-feed/backend/app/middleware"
)

type Controllers struct {
	HTTP          *controllers.HTTPController
	Auth          *controllers.AuthController
	CommandStatus *controllers.CommandStatusController
	QueryCommand  *controllers.QueryCommandController
	AgentMap      *controllers.AgentMapController
}

func NewRouter(c Controllers, mw *middleware.Auth) http.Handler {
	mux := http.NewServeMux()
	public := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.WithRoute(pattern, h))
	}
	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.WithRoute(pattern, mw.RequireAuth(h)))
	}

	// public
	public("GET /ping", c.HTTP.Ping)
	public("POST /login", c.Auth.Login)

	// status queries
	authed("GET /debug/status/commandid/{commandId}", c.CommandStatus.ByCommandID)
	authed("GET /commandstatus/query", c.CommandStatus.Query)

	// live queue bridge
	authed("GET /debug/querycommand/{commandId}/{agentId}/{assetGroupId}", c.QueryCommand.Query)

	authed("GET /debug/dataagentmap", c.AgentMap.Get)

	return middleware.Logging(mux)
}
