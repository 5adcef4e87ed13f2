package models

import "time"

// CommandHistory is the Core fragment of a command. Rows are written by the
// ingestion pipeline; this service only reads them.
type CommandHistory struct {
	CommandID                string    `gorm:"primaryKey;size:36"`
	SubjectType              string    `gorm:"size:32;index:idx_command_subject,priority:1"`
	SubjectKey               string    `gorm:"size:191;index:idx_command_subject,priority:2"`
	Subject                  string    `gorm:"type:text"` // JSON subject envelope
	CommandType              string    `gorm:"size:32;index"`
	CreatedTime              time.Time `gorm:"index"`
	TotalCommandCount        *int64
	CompletedCommandCount    *int64
	ForceCompletedCount      *int64
	IsGloballyComplete       bool
	CompletedTime            *time.Time
	Requester                string `gorm:"size:191;index"`
	Context                  string `gorm:"type:text"`
	FinalDestination         string `gorm:"size:1024"`
	RawCommand               string `gorm:"type:text"` // legacy request JSON
	IngestionAssemblyVersion string `gorm:"size:64"`
	IngestionDataSetVersion  *int64
	QueueStorageType         string `gorm:"size:32"`
	IsSynthetic              bool
}

// CommandAudit is one entry of the Audit fragment: the applicability
// decision made for a target at ingestion.
type CommandAudit struct {
	ID              uint   `gorm:"primaryKey"`
	CommandID       string `gorm:"size:36;uniqueIndex:idx_audit_target,priority:1"`
	AgentID         string `gorm:"size:36;uniqueIndex:idx_audit_target,priority:2"`
	AssetGroupID    string `gorm:"size:36;uniqueIndex:idx_audit_target,priority:3"`
	IngestionStatus string `gorm:"size:32"`
	DebugText       string `gorm:"size:1024"`
}

// CommandAssetGroupStatus is one entry of the Status fragment: delivery
// tracking for a target.
type CommandAssetGroupStatus struct {
	ID                  uint   `gorm:"primaryKey"`
	CommandID           string `gorm:"size:36;uniqueIndex:idx_status_target,priority:1"`
	AgentID             string `gorm:"size:36;uniqueIndex:idx_status_target,priority:2"`
	AssetGroupID        string `gorm:"size:36;uniqueIndex:idx_status_target,priority:3"`
	IngestionTime       *time.Time
	CompletedTime       *time.Time
	SoftDeleteTime      *time.Time
	ForceCompleted      bool
	ForceCompleteReason string `gorm:"size:255"`
	AffectedRows        *int64
	StorageMoniker      string `gorm:"size:128"` // live queue shard
}
