package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"compliance-feed/backend/app/history"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusRecord(key history.TargetKey) *history.Record {
	return &history.Record{
		CommandID: history.CommandID(uuid.New()),
		Core: history.Core{
			Subject:               history.MSASubject{Puid: 42},
			CommandType:           history.CommandExport,
			CreatedTime:           *at(0),
			TotalCommandCount:     ptr[int64](4),
			CompletedCommandCount: ptr[int64](3),
			Requester:             "portal",
			Context:               "ticket 1234",
			FinalDestination:      "https://exports.example.net/c1",
			RawCommand:            `{"RequestType":"Export","PrivacyDataTypes":["A","B"]}`,
		},
		AuditMap: map[history.TargetKey]history.AuditEntry{
			key: {IngestionStatus: history.IngestionAccepted},
		},
		StatusMap: map[history.TargetKey]history.StatusEntry{
			key:      {IngestionTime: at(1), CompletedTime: at(2), ForceCompleted: true},
			newKey(): {IngestionTime: at(1)},
		},
	}
}

func TestByCommandID(t *testing.T) {
	key := newKey()
	rec := statusRecord(key)
	store := &fakeStore{records: map[history.CommandID]*history.Record{rec.CommandID: rec}}
	svc := NewCommandStatusService(store, agentsWith(key, "AssetType=Blob", false), nil)

	resp, err := svc.ByCommandID(context.Background(), rec.CommandID.String(), QueryOptions{})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, history.FragmentCore|history.FragmentAudit|history.FragmentStatus, store.lastMask)

	assert.Equal(t, rec.CommandID.String(), resp.CommandID)
	assert.Equal(t, "Export", resp.CommandType)
	assert.Equal(t, "MSA", resp.SubjectType)
	assert.Equal(t, []string{"A", "B"}, resp.DataTypes)
	assert.Len(t, resp.AssetGroupStatuses, 2)
	// (3 completed - 1 forced) / 4
	assert.InDelta(t, 0.5, resp.CompletionSuccessRate, 1e-9)

	assert.Equal(t, RedactedReplacementString, resp.Requester, "default must redact")
	assert.Equal(t, RedactedReplacementString, resp.Context)
	assert.Equal(t, "https://Redacted", resp.FinalDestinationURI)
	assert.JSONEq(t, `"Redacted"`, string(resp.Subject))

	resp, err = svc.ByCommandID(context.Background(), rec.CommandID.String(), QueryOptions{Unredacted: true})
	require.NoError(t, err)
	assert.Equal(t, "portal", resp.Requester)
	assert.Equal(t, "https://exports.example.net/c1", resp.FinalDestinationURI)
	assert.JSONEq(t, `{"type":"MSA","data":{"puid":42}}`, string(resp.Subject))
}

func TestByCommandIDNotFound(t *testing.T) {
	store := &fakeStore{}
	svc := NewCommandStatusService(store, nil, nil)

	resp, err := svc.ByCommandID(context.Background(), uuid.NewString(), QueryOptions{})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestByCommandIDMalformedID(t *testing.T) {
	store := &fakeStore{}
	svc := NewCommandStatusService(store, nil, nil)

	_, err := svc.ByCommandID(context.Background(), "not-a-command", QueryOptions{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, store.reads)
}

func TestByCommandIDCorruptPayload(t *testing.T) {
	rec := statusRecord(newKey())
	rec.Core.RawCommand = `{"RequestType":"Delete","PrivacyDataType":`
	store := &fakeStore{records: map[history.CommandID]*history.Record{rec.CommandID: rec}}
	svc := NewCommandStatusService(store, nil, nil)

	resp, err := svc.ByCommandID(context.Background(), rec.CommandID.String(), QueryOptions{})
	assert.ErrorIs(t, err, history.ErrCorruptRecord)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, resp)
}

func TestByCommandIDStoreFault(t *testing.T) {
	boom := errors.New("boom")
	svc := NewCommandStatusService(&fakeStore{err: boom}, nil, nil)

	_, err := svc.ByCommandID(context.Background(), uuid.NewString(), QueryOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestByFilterRejectsBeforeScan(t *testing.T) {
	tests := []struct {
		name string
		q    StatusQuery
	}{
		{"unknown command type", StatusQuery{CommandTypes: []string{"Delete", "Obliterate"}}},
		{"malformed oldest", StatusQuery{Oldest: "yesterday"}},
		{"oldest without zone", StatusQuery{Oldest: "2024-03-01T12:00:00"}},
		{"subject type without id", StatusQuery{SubjectType: "MSA"}},
		{"subject id without type", StatusQuery{SubjectID: "42"}},
		{"unknown subject type", StatusQuery{SubjectType: "Pet", SubjectID: "42"}},
		{"non numeric puid", StatusQuery{SubjectType: "MSA", SubjectID: "abc"}},
		{"demographic subject", StatusQuery{SubjectType: "Demographic", SubjectID: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := NewCommandStatusService(store, nil, nil)

			out, err := svc.ByFilter(context.Background(), tt.q, QueryOptions{})
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, out)
			assert.Zero(t, store.scans)
		})
	}
}

func TestByFilter(t *testing.T) {
	rec := statusRecord(newKey())
	store := &fakeStore{scanned: []*history.Record{rec}}
	groups := [][]string{{"portal", "portal-ppe"}}
	svc := NewCommandStatusService(store, nil, groups)

	out, err := svc.ByFilter(context.Background(), StatusQuery{
		SubjectType:  "msa",
		SubjectID:    " 0042 ",
		Requester:    "portal-ppe",
		CommandTypes: []string{"export", "Delete"},
		Oldest:       "2024-03-01T13:00:00+01:00",
	}, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, out, 1)

	f := store.lastQuery
	assert.Equal(t, history.SubjectMSA, f.SubjectType)
	assert.Equal(t, "42", f.SubjectIdentity)
	assert.Equal(t, []string{"portal", "portal-ppe"}, f.Requesters)
	assert.Equal(t, []history.CommandType{history.CommandExport, history.CommandDelete}, f.CommandTypes)
	require.NotNil(t, f.Oldest)
	assert.True(t, f.Oldest.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	assert.Empty(t, out[0].AssetGroupStatuses, "filtered results carry no per-target breakdown")
	assert.Equal(t, RedactedReplacementString, out[0].Requester)
}

func TestByFilterNoFilters(t *testing.T) {
	store := &fakeStore{}
	svc := NewCommandStatusService(store, nil, nil)

	out, err := svc.ByFilter(context.Background(), StatusQuery{Requester: "solo"}, QueryOptions{Unredacted: true})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	assert.Equal(t, []string{"solo"}, store.lastQuery.Requesters)
	assert.Equal(t, 1, store.scans)
}
