package dto

import (
	"encoding/json"
	"time"
)

// AssetGroupCommandStatus is the merged view of one target of a command.
type AssetGroupCommandStatus struct {
	AgentID             string     `json:"agentId"`
	AssetGroupID        string     `json:"assetGroupId"`
	AssetGroupQualifier string     `json:"assetGroupQualifier"`
	IngestionTime       *time.Time `json:"ingestionTime,omitempty"`
	CompletedTime       *time.Time `json:"completedTime,omitempty"`
	SoftDeleteTime      *time.Time `json:"softDeleteTime,omitempty"`
	ForceCompleted      bool       `json:"forceCompleted"`
	ForceCompleteReason string     `json:"forceCompleteReason,omitempty"`
	AffectedRows        *int64     `json:"affectedRows,omitempty"`
	// IngestionActionTaken is the applicability decision, "Unknown" when no
	// audit entry exists for the target.
	IngestionActionTaken string `json:"ingestionActionTaken"`
	IngestionDebugText   string `json:"ingestionDebugText,omitempty"`
	// IngestionConflict flags a target whose audit entry says Rejected while
	// its status entry shows delivery or completion.
	IngestionConflict bool `json:"ingestionConflict,omitempty"`
}

type CommandStatusResponse struct {
	CommandID   string `json:"commandId"`
	CommandType string `json:"commandType"`
	SubjectType string `json:"subjectType,omitempty"`
	// Subject is the discriminated subject document, or the string
	// "Redacted".
	Subject                  json.RawMessage           `json:"subject,omitempty"`
	Requester                string                    `json:"requester"`
	Context                  string                    `json:"context"`
	FinalDestinationURI      string                    `json:"finalDestinationUri,omitempty"`
	CreatedTime              time.Time                 `json:"createdTime"`
	TotalCommandCount        *int64                    `json:"totalCommandCount,omitempty"`
	CompletedCommandCount    *int64                    `json:"completedCommandCount,omitempty"`
	ForceCompletedCount      *int64                    `json:"forceCompletedCount,omitempty"`
	IsGloballyComplete       bool                      `json:"isGloballyComplete"`
	CompletedTime            *time.Time                `json:"completedTime,omitempty"`
	IngestionAssemblyVersion string                    `json:"ingestionAssemblyVersion,omitempty"`
	IngestionDataSetVersion  *int64                    `json:"ingestionDataSetVersion,omitempty"`
	IsSyntheticCommand       bool                      `json:"isSyntheticCommand"`
	DataTypes                []string                  `json:"dataTypes"`
	CompletionSuccessRate    float64                   `json:"completionSuccessRate"`
	AssetGroupStatuses       []AssetGroupCommandStatus `json:"assetGroupStatuses"`
}

// QueryCommandResponse answers a single target resolution. Command is set
// only when ResponseCode is OK.
type QueryCommandResponse struct {
	ResponseCode string          `json:"responseCode"`
	Command      json.RawMessage `json:"command,omitempty"`
}

type AgentMapResponse struct {
	Version int64 `json:"version"`
	Agents  any   `json:"agents"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
