package queue

import (
	"compliance-feed/backend/app/history"
)

// CurrentReceiptVersion is stamped on every receipt built by this service.
const CurrentReceiptVersion = 3

// LeaseReceipt locates one command in the live queue. Receipts built by
// NewVirtualLeaseReceipt are never persisted and carry no lease: they only
// say where to look.
type LeaseReceipt struct {
	Version          int
	DatabaseMoniker  string
	CommandID        history.CommandID
	AgentID          history.AgentID
	AssetGroupID     history.AssetGroupID
	SubjectType      history.SubjectType
	CommandType      history.CommandType
	QueueStorageType history.QueueStorageType
}

// NewVirtualLeaseReceipt builds a receipt for a single lookup from what the
// status record knows about the target.
func NewVirtualLeaseReceipt(
	moniker string,
	commandID history.CommandID,
	key history.TargetKey,
	subjectType history.SubjectType,
	commandType history.CommandType,
	storage history.QueueStorageType,
) LeaseReceipt {
	return LeaseReceipt{
		Version:          CurrentReceiptVersion,
		DatabaseMoniker:  moniker,
		CommandID:        commandID,
		AgentID:          key.AgentID,
		AssetGroupID:     key.AssetGroupID,
		SubjectType:      subjectType,
		CommandType:      commandType,
		QueueStorageType: storage,
	}
}

// partition names the queue partition a receipt points into.
func (r LeaseReceipt) partition() string {
	return r.AgentID.String() + ":" + r.AssetGroupID.String() + ":" + string(r.SubjectType)
}
