package services

import (
	"context"
	"time"

	"compliance-feed/backend/app/agentmap"
	"compliance-feed/backend/app/history"
	"compliance-feed/backend/app/queue"

	"github.com/google/uuid"
)

type fakeStore struct {
	records   map[history.CommandID]*history.Record
	scanned   []*history.Record
	err       error
	reads     int
	scans     int
	lastMask  history.FragmentTypes
	lastQuery history.Filter
}

func (f *fakeStore) ReadByID(_ context.Context, id history.CommandID, fragments history.FragmentTypes) (*history.Record, error) {
	f.reads++
	f.lastMask = fragments
	if f.err != nil {
		return nil, f.err
	}
	return f.records[id], nil
}

func (f *fakeStore) Scan(_ context.Context, filter history.Filter, fragments history.FragmentTypes) ([]*history.Record, error) {
	f.scans++
	f.lastMask = fragments
	f.lastQuery = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.scanned, nil
}

type fakeQueue struct {
	commands map[history.CommandID]*queue.PrivacyCommand
	err      error
	receipts []queue.LeaseReceipt
}

func (f *fakeQueue) QueryCommand(_ context.Context, r queue.LeaseReceipt) (*queue.PrivacyCommand, error) {
	f.receipts = append(f.receipts, r)
	if f.err != nil {
		return nil, f.err
	}
	return f.commands[r.CommandID], nil
}

func newKey() history.TargetKey {
	return history.TargetKey{AgentID: history.AgentID(uuid.New()), AssetGroupID: history.AssetGroupID(uuid.New())}
}

func ptr[T any](v T) *T { return &v }

func at(minutes int) *time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return &t
}

func agentsWith(key history.TargetKey, qualifier string, multiTenant bool) *agentmap.Snapshot {
	return agentmap.NewSnapshot(1, &agentmap.AgentInfo{
		ID:                  key.AgentID,
		MultiTenantSubjects: multiTenant,
		AssetGroups: map[history.AssetGroupID]agentmap.AssetGroupInfo{
			key.AssetGroupID: {ID: key.AssetGroupID, Qualifier: qualifier},
		},
	})
}
