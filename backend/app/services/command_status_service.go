package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"compliance-feed/backend/app/agentmap"
	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/history"
)

// ErrInvalidRequest classes caller errors. Requests failing validation never
// reach the record store.
var ErrInvalidRequest = errors.New("invalid request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// RecordStore is the read side of the command history store.
type RecordStore interface {
	ReadByID(ctx context.Context, id history.CommandID, fragments history.FragmentTypes) (*history.Record, error)
	Scan(ctx context.Context, filter history.Filter, fragments history.FragmentTypes) ([]*history.Record, error)
}

// QueryOptions controls response shaping. The zero value redacts.
type QueryOptions struct {
	Unredacted bool
}

// StatusQuery is a filtered status query as received from a caller. Every
// field is optional; SubjectType and SubjectID go together.
type StatusQuery struct {
	SubjectType  string
	SubjectID    string
	Requester    string
	CommandTypes []string
	Oldest       string
}

type CommandStatusService struct {
	store           RecordStore
	agents          agentmap.Map
	requesterGroups [][]string
}

// NewCommandStatusService builds the status query handlers. A requester that
// belongs to one of requesterGroups matches commands from every member of
// that group.
func NewCommandStatusService(store RecordStore, agents agentmap.Map, requesterGroups [][]string) *CommandStatusService {
	return &CommandStatusService{store: store, agents: agents, requesterGroups: requesterGroups}
}

// ByCommandID returns the status of one command with its per-target
// breakdown, or nil when the command is unknown.
func (s *CommandStatusService) ByCommandID(ctx context.Context, rawID string, opts QueryOptions) (*dto.CommandStatusResponse, error) {
	id, err := history.ParseCommandID(strings.TrimSpace(rawID))
	if err != nil {
		return nil, invalidf("%v", err)
	}
	rec, err := s.store.ReadByID(ctx, id, history.FragmentCore|history.FragmentAudit|history.FragmentStatus)
	if err != nil {
		return nil, fmt.Errorf("read command %s: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	resp, err := s.buildResponse(rec, true)
	if err != nil {
		return nil, err
	}
	resp = ApplyRedaction(resp, opts.Unredacted)
	return &resp, nil
}

// ByFilter returns a flat list of matching commands without per-target
// breakdown.
func (s *CommandStatusService) ByFilter(ctx context.Context, q StatusQuery, opts QueryOptions) ([]dto.CommandStatusResponse, error) {
	filter, err := s.parseFilter(q)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.Scan(ctx, filter, history.FragmentCore|history.FragmentStatus)
	if err != nil {
		return nil, fmt.Errorf("scan commands: %w", err)
	}
	out := make([]dto.CommandStatusResponse, 0, len(recs))
	for _, rec := range recs {
		resp, err := s.buildResponse(rec, false)
		if err != nil {
			return nil, err
		}
		out = append(out, ApplyRedaction(resp, opts.Unredacted))
	}
	return out, nil
}

func (s *CommandStatusService) parseFilter(q StatusQuery) (history.Filter, error) {
	var f history.Filter

	subjectType, subjectID := strings.TrimSpace(q.SubjectType), strings.TrimSpace(q.SubjectID)
	switch {
	case subjectType == "" && subjectID == "":
	case subjectType == "" || subjectID == "":
		return f, invalidf("subject type and subject id must be given together")
	default:
		t, err := history.ParseSubjectType(subjectType)
		if err != nil {
			return f, invalidf("%v", err)
		}
		identity, err := history.NormalizeSubjectIdentity(t, subjectID)
		if err != nil {
			return f, invalidf("%v", err)
		}
		f.SubjectType, f.SubjectIdentity = t, identity
	}

	for _, raw := range q.CommandTypes {
		t, err := history.ParseCommandType(raw)
		if err != nil {
			return f, invalidf("%v", err)
		}
		f.CommandTypes = append(f.CommandTypes, t)
	}

	if q.Oldest != "" {
		oldest, err := time.Parse(time.RFC3339, q.Oldest)
		if err != nil {
			return f, invalidf("malformed oldest timestamp %q", q.Oldest)
		}
		oldest = oldest.UTC()
		f.Oldest = &oldest
	}

	if q.Requester != "" {
		f.Requesters = s.expandRequester(q.Requester)
	}
	return f, nil
}

func (s *CommandStatusService) expandRequester(requester string) []string {
	for _, group := range s.requesterGroups {
		for _, member := range group {
			if member == requester {
				return append([]string(nil), group...)
			}
		}
	}
	return []string{requester}
}

func (s *CommandStatusService) buildResponse(rec *history.Record, withTargets bool) (dto.CommandStatusResponse, error) {
	core := rec.Core
	dataTypes, err := ExtractDataTypes(core.RawCommand)
	if err != nil {
		return dto.CommandStatusResponse{}, fmt.Errorf("command %s: %w", rec.CommandID, err)
	}
	subject, err := history.MarshalSubject(core.Subject)
	if err != nil {
		return dto.CommandStatusResponse{}, fmt.Errorf("command %s: encode subject: %w", rec.CommandID, err)
	}

	views := MergeTargets(rec, s.agents)
	resp := dto.CommandStatusResponse{
		CommandID:                rec.CommandID.String(),
		CommandType:              string(core.CommandType),
		Subject:                  subject,
		Requester:                core.Requester,
		Context:                  core.Context,
		FinalDestinationURI:      core.FinalDestination,
		CreatedTime:              core.CreatedTime,
		TotalCommandCount:        core.TotalCommandCount,
		CompletedCommandCount:    core.CompletedCommandCount,
		ForceCompletedCount:      core.ForceCompletedCount,
		IsGloballyComplete:       core.IsGloballyComplete,
		CompletedTime:            core.CompletedTime,
		IngestionAssemblyVersion: core.IngestionAssemblyVersion,
		IngestionDataSetVersion:  core.IngestionDataSetVersion,
		IsSyntheticCommand:       core.IsSynthetic,
		DataTypes:                dataTypes,
		CompletionSuccessRate:    CompletionRate(core.CompletedCommandCount, countForceCompleted(views), core.TotalCommandCount),
		AssetGroupStatuses:       []dto.AssetGroupCommandStatus{},
	}
	if core.Subject != nil {
		resp.SubjectType = string(core.Subject.SubjectType())
	}
	if withTargets {
		resp.AssetGroupStatuses = views
	}
	return resp, nil
}
