package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"compliance-feed/backend/app/agentmap"
	"compliance-feed/backend/app/history"
	"compliance-feed/backend/app/queue"
	"compliance-feed/backend/global"

	"github.com/Masterminds/semver/v3"
)

// ResponseCode is the outcome of resolving one (command, target) pair. The
// string values are part of the wire contract.
type ResponseCode string

const (
	ResponseOK                      ResponseCode = "OK"
	ResponseCommandNotFound         ResponseCode = "CommandNotFound"
	ResponseCommandNotFoundInQueue  ResponseCode = "CommandNotFoundInQueue"
	ResponseCommandNotApplicable    ResponseCode = "CommandNotApplicable"
	ResponseCommandNotYetDelivered  ResponseCode = "CommandNotYetDelivered"
	ResponseCommandAlreadyCompleted ResponseCode = "CommandAlreadyCompleted"
	ResponseUnableToResolveLocation ResponseCode = "UnableToResolveLocation"
	ResponseCommandNotQueryable     ResponseCode = "CommandNotQueryable"
)

// CommandQueue does point lookups in the live queue. A miss is nil, nil.
type CommandQueue interface {
	QueryCommand(ctx context.Context, r queue.LeaseReceipt) (*queue.PrivacyCommand, error)
}

type ResolveRequest struct {
	CommandID     string
	AgentID       string
	AssetGroupID  string
	ClientVersion string
}

// ResolveResult carries the response code and, for ResponseOK only, the
// queued command encoded for the caller.
type ResolveResult struct {
	Code    ResponseCode
	Command json.RawMessage
}

type CommandResolver struct {
	store       RecordStore
	queue       CommandQueue
	agents      agentmap.Map
	multiTenant *semver.Constraints
}

// NewCommandResolver builds the resolver. Callers whose protocol version is
// at least minMultiTenantVersion may receive multi-tenant subjects.
func NewCommandResolver(store RecordStore, q CommandQueue, agents agentmap.Map, minMultiTenantVersion string) (*CommandResolver, error) {
	c, err := semver.NewConstraint(">= " + minMultiTenantVersion)
	if err != nil {
		return nil, fmt.Errorf("multi-tenant client version %q: %w", minMultiTenantVersion, err)
	}
	return &CommandResolver{store: store, queue: q, agents: agents, multiTenant: c}, nil
}

// Resolve reports where one target of a command stands. The checks run in a
// fixed order and the first match decides. Only a target that status says
// was delivered and not completed is looked up in the live queue, once.
func (r *CommandResolver) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	commandID, err := history.ParseCommandID(strings.TrimSpace(req.CommandID))
	if err != nil {
		return ResolveResult{}, invalidf("%v", err)
	}
	agentID, err := history.ParseAgentID(strings.TrimSpace(req.AgentID))
	if err != nil {
		return ResolveResult{}, invalidf("%v", err)
	}
	assetGroupID, err := history.ParseAssetGroupID(strings.TrimSpace(req.AssetGroupID))
	if err != nil {
		return ResolveResult{}, invalidf("%v", err)
	}
	key := history.TargetKey{AgentID: agentID, AssetGroupID: assetGroupID}
	if !key.Valid() {
		return ResolveResult{}, invalidf("agent and asset group ids must be non-zero")
	}

	rec, err := r.store.ReadByID(ctx, commandID, history.FragmentCore|history.FragmentStatus)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("read command %s: %w", commandID, err)
	}
	if rec == nil {
		return ResolveResult{Code: ResponseCommandNotFound}, nil
	}
	if !rec.Core.QueueStorageType.Queryable() {
		return ResolveResult{Code: ResponseCommandNotQueryable}, nil
	}
	status, ok := rec.StatusMap[key]
	if !ok {
		return ResolveResult{Code: ResponseCommandNotApplicable}, nil
	}
	if status.StorageMoniker == "" {
		return ResolveResult{Code: ResponseUnableToResolveLocation}, nil
	}
	if status.CompletedTime != nil {
		return ResolveResult{Code: ResponseCommandAlreadyCompleted}, nil
	}
	if status.IngestionTime == nil {
		return ResolveResult{Code: ResponseCommandNotYetDelivered}, nil
	}

	var subjectType history.SubjectType
	if rec.Core.Subject != nil {
		subjectType = rec.Core.Subject.SubjectType()
	}
	receipt := queue.NewVirtualLeaseReceipt(status.StorageMoniker, commandID, key, subjectType, rec.Core.CommandType, rec.Core.QueueStorageType)

	cmd, err := r.queue.QueryCommand(ctx, receipt)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("query live queue for command %s: %w", commandID, err)
	}
	if cmd == nil {
		global.Logger.Info().
			Str("command_id", commandID.String()).
			Str("target", key.String()).
			Str("moniker", status.StorageMoniker).
			Msg("command delivered but absent from live queue, expected transient until tracking catches up")
		return ResolveResult{Code: ResponseCommandNotFoundInQueue}, nil
	}

	payload, err := cmd.Encode(r.multiTenantSupported(req.ClientVersion, agentID))
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{Code: ResponseOK, Command: payload}, nil
}

// multiTenantSupported needs both a caller protocol version that understands
// multi-tenant subjects and an agent that opted in. An unparsable version is
// treated as too old.
func (r *CommandResolver) multiTenantSupported(clientVersion string, agentID history.AgentID) bool {
	v, err := semver.NewVersion(strings.TrimSpace(clientVersion))
	if err != nil || !r.multiTenant.Check(v) {
		return false
	}
	if r.agents == nil {
		return false
	}
	agent, ok := r.agents.Lookup(agentID)
	return ok && agent.MultiTenantSubjects
}
