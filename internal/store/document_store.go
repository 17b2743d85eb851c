package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"asbuilt-data/internal/domain"
)

// ErrReportNotFound 指定 report 不存在
var ErrReportNotFound = errors.New("report not found")

// DocumentStore 报告文档存储：整篇读/整篇写（保持不变量对 UI 原子）
// 文档以 JSON 快照存于 KV，无 TTL
type DocumentStore struct {
	kv KV
}

// NewDocumentStore 创建文档存储
func NewDocumentStore(kv KV) *DocumentStore {
	return &DocumentStore{kv: kv}
}

func reportKey(reportID string) string {
	return "asbuilt:report:" + reportID
}

// Read 读取整篇文档
func (s *DocumentStore) Read(ctx context.Context, reportID string) (*domain.Report, error) {
	raw, err := s.kv.Get(ctx, reportKey(reportID))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read report %s: %w", reportID, err)
	}
	var report domain.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", reportID, err)
	}
	return &report, nil
}

// Write 写入整篇文档（覆盖）
func (s *DocumentStore) Write(ctx context.Context, report *domain.Report) error {
	if report == nil || report.ReportID == "" {
		return errors.New("report id is required")
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", report.ReportID, err)
	}
	if err := s.kv.Set(ctx, reportKey(report.ReportID), string(raw), 0); err != nil {
		return fmt.Errorf("failed to write report %s: %w", report.ReportID, err)
	}
	return nil
}

// Delete 删除文档
func (s *DocumentStore) Delete(ctx context.Context, reportID string) error {
	return s.kv.Del(ctx, reportKey(reportID))
}
