package repo

import (
	"context"
	"errors"
	"fmt"

	"compliance-feed/backend/app/history"
	"compliance-feed/backend/app/models"

	"gorm.io/gorm"
)

// ErrTooManyResults is returned when a scan matches more records than the
// configured ceiling. Results are never silently truncated.
var ErrTooManyResults = errors.New("command history query matched too many records")

const (
	defaultScanPageSize = 200
	defaultMaxResults   = 5000
)

// CommandHistoryRepository reads command records and their Audit/Status
// fragments. It never writes.
type CommandHistoryRepository struct {
	db         *gorm.DB
	pageSize   int
	maxResults int
}

func NewCommandHistoryRepository(db *gorm.DB, pageSize, maxResults int) *CommandHistoryRepository {
	if pageSize <= 0 {
		pageSize = defaultScanPageSize
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &CommandHistoryRepository{db: db, pageSize: pageSize, maxResults: maxResults}
}

// ReadByID returns nil, nil when no record exists for the id.
func (r *CommandHistoryRepository) ReadByID(ctx context.Context, id history.CommandID, fragments history.FragmentTypes) (*history.Record, error) {
	if fragments == history.FragmentNone {
		return nil, errors.New("read command history: no fragments requested")
	}
	var rows []models.CommandHistory
	if err := r.db.WithContext(ctx).Where("command_id = ?", id.String()).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read command %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	records, err := r.withFragments(ctx, rows, fragments)
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// Scan walks every matching record page by page and returns them as one
// collection.
func (r *CommandHistoryRepository) Scan(ctx context.Context, filter history.Filter, fragments history.FragmentTypes) ([]*history.Record, error) {
	if fragments == history.FragmentNone {
		return nil, errors.New("scan command history: no fragments requested")
	}
	var (
		out    []*history.Record
		cursor string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := applyFilter(r.db.WithContext(ctx).Model(&models.CommandHistory{}), filter)
		if cursor != "" {
			q = q.Where("command_id > ?", cursor)
		}
		var rows []models.CommandHistory
		if err := q.Order("command_id ASC").Limit(r.pageSize).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("scan command history: %w", err)
		}
		if len(rows) == 0 {
			break
		}
		if len(out)+len(rows) > r.maxResults {
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyResults, r.maxResults)
		}
		records, err := r.withFragments(ctx, rows, fragments)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
		if len(rows) < r.pageSize {
			break
		}
		cursor = rows[len(rows)-1].CommandID
	}
	return out, nil
}

func applyFilter(q *gorm.DB, f history.Filter) *gorm.DB {
	if f.SubjectType != "" {
		q = q.Where("subject_type = ? AND subject_key = ?", string(f.SubjectType), f.SubjectIdentity)
	}
	if len(f.Requesters) > 0 {
		q = q.Where("requester IN ?", f.Requesters)
	}
	if len(f.CommandTypes) > 0 {
		types := make([]string, 0, len(f.CommandTypes))
		for _, t := range f.CommandTypes {
			types = append(types, string(t))
		}
		q = q.Where("command_type IN ?", types)
	}
	if f.Oldest != nil {
		q = q.Where("created_time >= ?", *f.Oldest)
	}
	return q
}

// withFragments converts core rows and loads the requested fragments for all
// of them with one query per fragment.
func (r *CommandHistoryRepository) withFragments(ctx context.Context, rows []models.CommandHistory, fragments history.FragmentTypes) ([]*history.Record, error) {
	ids := make([]string, 0, len(rows))
	byID := make(map[string]*history.Record, len(rows))
	records := make([]*history.Record, 0, len(rows))
	for i := range rows {
		rec, err := toRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		if fragments.Has(history.FragmentAudit) {
			rec.AuditMap = make(map[history.TargetKey]history.AuditEntry)
		}
		if fragments.Has(history.FragmentStatus) {
			rec.StatusMap = make(map[history.TargetKey]history.StatusEntry)
		}
		ids = append(ids, rows[i].CommandID)
		byID[rows[i].CommandID] = rec
		records = append(records, rec)
	}

	if fragments.Has(history.FragmentAudit) {
		var audits []models.CommandAudit
		if err := r.db.WithContext(ctx).Where("command_id IN ?", ids).Find(&audits).Error; err != nil {
			return nil, fmt.Errorf("read audit fragment: %w", err)
		}
		for _, a := range audits {
			rec := byID[a.CommandID]
			if rec == nil {
				continue
			}
			status := history.IngestionStatus(a.IngestionStatus)
			if status == "" {
				status = history.IngestionUnknown
			}
			rec.AuditMap[targetKey(a.AgentID, a.AssetGroupID)] = history.AuditEntry{
				IngestionStatus: status,
				DebugText:       a.DebugText,
			}
		}
	}

	if fragments.Has(history.FragmentStatus) {
		var statuses []models.CommandAssetGroupStatus
		if err := r.db.WithContext(ctx).Where("command_id IN ?", ids).Find(&statuses).Error; err != nil {
			return nil, fmt.Errorf("read status fragment: %w", err)
		}
		for _, s := range statuses {
			rec := byID[s.CommandID]
			if rec == nil {
				continue
			}
			rec.StatusMap[targetKey(s.AgentID, s.AssetGroupID)] = history.StatusEntry{
				IngestionTime:       s.IngestionTime,
				CompletedTime:       s.CompletedTime,
				SoftDeleteTime:      s.SoftDeleteTime,
				ForceCompleted:      s.ForceCompleted,
				ForceCompleteReason: s.ForceCompleteReason,
				AffectedRows:        s.AffectedRows,
				StorageMoniker:      s.StorageMoniker,
			}
		}
	}
	return records, nil
}

func toRecord(row *models.CommandHistory) (*history.Record, error) {
	id, err := history.ParseCommandID(row.CommandID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", history.ErrCorruptRecord, err)
	}
	subject, err := history.UnmarshalSubject([]byte(row.Subject))
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", row.CommandID, err)
	}
	return &history.Record{
		CommandID: id,
		Core: history.Core{
			Subject:                  subject,
			CommandType:              history.CommandType(row.CommandType),
			CreatedTime:              row.CreatedTime,
			TotalCommandCount:        row.TotalCommandCount,
			CompletedCommandCount:    row.CompletedCommandCount,
			ForceCompletedCount:      row.ForceCompletedCount,
			IsGloballyComplete:       row.IsGloballyComplete,
			CompletedTime:            row.CompletedTime,
			Requester:                row.Requester,
			Context:                  row.Context,
			FinalDestination:         row.FinalDestination,
			RawCommand:               row.RawCommand,
			IngestionAssemblyVersion: row.IngestionAssemblyVersion,
			IngestionDataSetVersion:  row.IngestionDataSetVersion,
			QueueStorageType:         history.QueueStorageType(row.QueueStorageType),
			IsSynthetic:              row.IsSynthetic,
		},
	}, nil
}

// targetKey parses stored ids leniently: a malformed half becomes the zero
// id, and the merge step drops the key.
func targetKey(agentID, assetGroupID string) history.TargetKey {
	a, _ := history.ParseAgentID(agentID)
	g, _ := history.ParseAssetGroupID(assetGroupID)
	return history.TargetKey{AgentID: a, AssetGroupID: g}
}
