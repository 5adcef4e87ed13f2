package services

import (
	"sort"

	"compliance-feed/backend/app/agentmap"
	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/history"
	"compliance-feed/backend/global"
)

// UndefinedCompletionRate is reported when the rate cannot be computed.
const UndefinedCompletionRate = -1.0

// MergeTargets joins the audit and status maps of a record into one view per
// target. Every key present in either map yields a view; keys with a zero
// agent or asset group id are dropped. Status fields win when both maps
// carry a key. The returned views are ordered by agent then asset group.
func MergeTargets(rec *history.Record, agents agentmap.Map) []dto.AssetGroupCommandStatus {
	keys := make(map[history.TargetKey]struct{}, len(rec.AuditMap)+len(rec.StatusMap))
	for k := range rec.AuditMap {
		keys[k] = struct{}{}
	}
	for k := range rec.StatusMap {
		keys[k] = struct{}{}
	}

	ordered := make([]history.TargetKey, 0, len(keys))
	for k := range keys {
		if !k.Valid() {
			global.Logger.Warn().
				Str("command_id", rec.CommandID.String()).
				Str("target", k.String()).
				Msg("dropping target with zero agent or asset group id")
			continue
		}
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ai, aj := ordered[i].AgentID.String(), ordered[j].AgentID.String()
		if ai != aj {
			return ai < aj
		}
		return ordered[i].AssetGroupID.String() < ordered[j].AssetGroupID.String()
	})

	views := make([]dto.AssetGroupCommandStatus, 0, len(ordered))
	for _, k := range ordered {
		audit, hasAudit := rec.AuditMap[k]
		status, hasStatus := rec.StatusMap[k]

		v := dto.AssetGroupCommandStatus{
			AgentID:              k.AgentID.String(),
			AssetGroupID:         k.AssetGroupID.String(),
			AssetGroupQualifier:  qualifier(agents, k),
			IngestionActionTaken: string(history.IngestionUnknown),
		}
		if hasAudit {
			if audit.IngestionStatus != "" {
				v.IngestionActionTaken = string(audit.IngestionStatus)
			}
			v.IngestionDebugText = audit.DebugText
		}
		if hasStatus {
			v.IngestionTime = status.IngestionTime
			v.CompletedTime = status.CompletedTime
			v.SoftDeleteTime = status.SoftDeleteTime
			v.ForceCompleted = status.ForceCompleted
			v.ForceCompleteReason = status.ForceCompleteReason
			v.AffectedRows = status.AffectedRows
		}
		if hasAudit && hasStatus && audit.IngestionStatus == history.IngestionRejected &&
			(status.IngestionTime != nil || status.CompletedTime != nil) {
			v.IngestionConflict = true
			global.Logger.Warn().
				Str("command_id", rec.CommandID.String()).
				Str("target", k.String()).
				Msg("audit rejected target but status shows delivery")
		}
		views = append(views, v)
	}
	return views
}

// CompletionRate is (completed - forceCompleted) / total, or
// UndefinedCompletionRate when a count is missing or total is zero.
func CompletionRate(completed *int64, forceCompleted int64, total *int64) float64 {
	if completed == nil || total == nil || *total == 0 {
		return UndefinedCompletionRate
	}
	return float64(*completed-forceCompleted) / float64(*total)
}

func countForceCompleted(views []dto.AssetGroupCommandStatus) int64 {
	var n int64
	for _, v := range views {
		if v.ForceCompleted {
			n++
		}
	}
	return n
}

func qualifier(agents agentmap.Map, k history.TargetKey) string {
	if agents == nil {
		return ""
	}
	agent, ok := agents.Lookup(k.AgentID)
	if !ok {
		return ""
	}
	g, ok := agent.LookupAssetGroup(k.AssetGroupID)
	if !ok {
		return ""
	}
	return g.Qualifier
}
