package history

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCorruptRecord marks stored data that cannot be decoded. It is a server
// fault and must never be converted into an empty value.
var ErrCorruptRecord = errors.New("corrupt command record")

type CommandType string

const (
	CommandDelete       CommandType = "Delete"
	CommandExport       CommandType = "Export"
	CommandAccountClose CommandType = "AccountClose"
	CommandAgeOut       CommandType = "AgeOut"
)

var commandTypes = []CommandType{CommandDelete, CommandExport, CommandAccountClose, CommandAgeOut}

// ParseCommandType is strict apart from letter case: any other token fails.
func ParseCommandType(s string) (CommandType, error) {
	for _, t := range commandTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown command type %q", s)
}

// QueueStorageType is the kind of live queue a command was delivered through.
type QueueStorageType string

const (
	QueueStorageUndefined QueueStorageType = "Undefined"
	QueueStorageDocument  QueueStorageType = "DocumentQueue"
	QueueStorageMessage   QueueStorageType = "MessageQueue"
)

// Queryable reports whether single commands can be looked up in this kind of
// queue. Message queues only support dequeue. Stored values are matched
// case-insensitively.
func (t QueueStorageType) Queryable() bool {
	switch {
	case t == "", strings.EqualFold(string(t), string(QueueStorageUndefined)),
		strings.EqualFold(string(t), string(QueueStorageDocument)):
		return true
	default:
		return false
	}
}

// FragmentTypes selects which parts of a record to load.
type FragmentTypes uint8

const (
	FragmentNone   FragmentTypes = 0
	FragmentCore   FragmentTypes = 1 << 0
	FragmentAudit  FragmentTypes = 1 << 1
	FragmentStatus FragmentTypes = 1 << 2
)

func (f FragmentTypes) Has(o FragmentTypes) bool { return f&o == o }

type IngestionStatus string

const (
	IngestionUnknown  IngestionStatus = "Unknown"
	IngestionAccepted IngestionStatus = "Accepted"
	IngestionRejected IngestionStatus = "Rejected"
)

// Core is the command-level fragment of a record.
type Core struct {
	Subject                  Subject
	CommandType              CommandType
	CreatedTime              time.Time
	TotalCommandCount        *int64
	CompletedCommandCount    *int64
	ForceCompletedCount      *int64
	IsGloballyComplete       bool
	CompletedTime            *time.Time
	Requester                string
	Context                  string
	FinalDestination         string
	RawCommand               string
	IngestionAssemblyVersion string
	IngestionDataSetVersion  *int64
	QueueStorageType         QueueStorageType
	IsSynthetic              bool
}

// AuditEntry records the applicability decision for one target.
type AuditEntry struct {
	IngestionStatus IngestionStatus
	DebugText       string
}

// StatusEntry records delivery tracking for one target.
type StatusEntry struct {
	IngestionTime       *time.Time
	CompletedTime       *time.Time
	SoftDeleteTime      *time.Time
	ForceCompleted      bool
	ForceCompleteReason string
	AffectedRows        *int64
	StorageMoniker      string
}

// Record is one command with whichever fragments were requested. AuditMap
// and StatusMap are populated independently and are never joined on write.
type Record struct {
	CommandID CommandID
	Core      Core
	AuditMap  map[TargetKey]AuditEntry
	StatusMap map[TargetKey]StatusEntry
}

// Filter narrows a scan. Zero fields do not filter.
type Filter struct {
	SubjectType     SubjectType
	SubjectIdentity string
	Requesters      []string
	CommandTypes    []CommandType
	Oldest          *time.Time
}
