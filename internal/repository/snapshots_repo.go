package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"asbuilt-data/internal/domain"

	"go.uber.org/zap"
)

// SnapshotMeta 归档快照元数据（列表页用，不带 payload）
type SnapshotMeta struct {
	SnapshotID string    `json:"snapshot_id"`
	ReportID   string    `json:"report_id"`
	SiteName   string    `json:"site_name"`
	ArchivedAt time.Time `json:"archived_at"`
}

// SnapshotsRepository 报告快照归档（report_snapshots 表，payload 为 JSONB 整篇文档）
type SnapshotsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSnapshotsRepository 创建快照归档 repository
func NewSnapshotsRepository(db *sql.DB, logger *zap.Logger) *SnapshotsRepository {
	return &SnapshotsRepository{db: db, logger: logger}
}

// Save 归档一份报告快照，返回快照 ID
func (r *SnapshotsRepository) Save(ctx context.Context, report *domain.Report) (string, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	var snapshotID string
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO report_snapshots (report_id, site_name, payload)
		 VALUES ($1, $2, $3)
		 RETURNING snapshot_id`,
		report.ReportID, report.SiteName, payload,
	).Scan(&snapshotID)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	r.logger.Info("Archived report snapshot",
		zap.String("report_id", report.ReportID),
		zap.String("snapshot_id", snapshotID),
	)
	return snapshotID, nil
}

// List 按归档时间倒序列出快照元数据
func (r *SnapshotsRepository) List(ctx context.Context, limit int) ([]SnapshotMeta, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT snapshot_id, report_id, site_name, archived_at
		 FROM report_snapshots
		 ORDER BY archived_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []SnapshotMeta{}
	for rows.Next() {
		var m SnapshotMeta
		if err := rows.Scan(&m.SnapshotID, &m.ReportID, &m.SiteName, &m.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get 取回一份快照的完整文档
func (r *SnapshotsRepository) Get(ctx context.Context, snapshotID string) (*domain.Report, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM report_snapshots WHERE snapshot_id = $1`,
		snapshotID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s not found", snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	return &report, nil
}
