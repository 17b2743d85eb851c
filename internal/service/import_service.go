package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"asbuilt-data/internal/domain"
	"asbuilt-data/internal/excel"
	"asbuilt-data/internal/imaging"
	"asbuilt-data/internal/reconcile"
	"asbuilt-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownFamily 照片导入指定了不存在的记录族
var ErrUnknownFamily = errors.New("unknown record family")

// ImportSummary 表格导入结果
type ImportSummary struct {
	Family            domain.Family        `json:"family"`
	RecordCount       int                  `json:"record_count"`
	DuplicatesRemoved int                  `json:"duplicates_removed"`
	Stats             reconcile.ParseStats `json:"stats"`
	// SourceMismatch 文件名门禁失败（未导入任何数据）
	SourceMismatch bool `json:"source_mismatch"`
}

// BatchSummary 照片批量导入结果
type BatchSummary struct {
	Assigned      int                          `json:"assigned"`
	AffectedSlots int                          `json:"affected_slots"`
	PerRole       map[reconcile.PhotoRole]int  `json:"per_role"`
	Unclassified  []reconcile.UnclassifiedFile `json:"unclassified"`
	Shadowed      []reconcile.ShadowedFile     `json:"shadowed"`
	Unmatched     []string                     `json:"unmatched_tokens"`
	// TranscodeFailed 逐文件转码失败（已跳过，不中断整批）
	TranscodeFailed []string `json:"transcode_failed"`
}

// ImportService 导入调和编排：表格 -> 记录 -> 槽位同步；照片批 -> 分类 -> 转码 -> 分配
// 文档整篇读写；每个 (report, family) 维护一个跨调用的已消费文件集合
type ImportService struct {
	docs       *store.DocumentStore
	transcoder imaging.Transcoder
	imgOpts    imaging.Options
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[string]map[string]bool // reportID+family -> consumed file keys
}

// NewImportService 创建导入服务
func NewImportService(docs *store.DocumentStore, transcoder imaging.Transcoder, imgOpts imaging.Options, logger *zap.Logger) *ImportService {
	return &ImportService{
		docs:       docs,
		transcoder: transcoder,
		imgOpts:    imgOpts,
		logger:     logger,
		sessions:   map[string]map[string]bool{},
	}
}

// CreateReport 新建空报告
func (s *ImportService) CreateReport(ctx context.Context, siteName, contractRef string) (*domain.Report, error) {
	report := domain.NewReport(uuid.NewString(), siteName, contractRef)
	if err := s.docs.Write(ctx, report); err != nil {
		return nil, err
	}
	s.logger.Info("Created report",
		zap.String("report_id", report.ReportID),
		zap.String("site_name", siteName),
	)
	return report, nil
}

// GetReport 读取整篇文档
func (s *ImportService) GetReport(ctx context.Context, reportID string) (*domain.Report, error) {
	return s.docs.Read(ctx, reportID)
}

// UpdateReport 整篇覆盖（UI 编辑器提交），随后重新同步槽位保持不变量
func (s *ImportService) UpdateReport(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	if _, err := s.docs.Read(ctx, report.ReportID); err != nil {
		return nil, err
	}
	next := report.Clone()
	syncAllSlots(next)
	if err := s.docs.Write(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ImportSpreadsheet 导入一份验收表格
// 文件名门禁决定记录族；门禁失败返回 SourceMismatch 结果（不是 error）
func (s *ImportService) ImportSpreadsheet(ctx context.Context, reportID, filename string, data []byte) (ImportSummary, error) {
	profile, ok := reconcile.DetectProfile(filename)
	if !ok {
		s.logger.Warn("Spreadsheet rejected by filename gate", zap.String("filename", filename))
		return ImportSummary{SourceMismatch: true}, nil
	}

	report, err := s.docs.Read(ctx, reportID)
	if err != nil {
		return ImportSummary{}, err
	}

	rows, err := excel.ReadRows(data)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	parsed, err := reconcile.ParseRows(profile, filename, rows)
	if err != nil {
		// DetectProfile 已命中，此处门禁不应再失败；保守处理为 mismatch
		return ImportSummary{Family: profile.Family, SourceMismatch: true}, nil
	}

	deduped := reconcile.Dedup(parsed.Records)

	next := report.Clone()
	next.Records[profile.Family] = deduped.Records
	syncAllSlots(next)

	if err := s.docs.Write(ctx, next); err != nil {
		return ImportSummary{}, err
	}

	s.logger.Info("Imported spreadsheet",
		zap.String("report_id", reportID),
		zap.String("family", string(profile.Family)),
		zap.Int("records", len(deduped.Records)),
		zap.Int("duplicates_removed", deduped.DuplicatesRemoved),
		zap.Int("rows_considered", parsed.Stats.RowsConsidered),
	)

	return ImportSummary{
		Family:            profile.Family,
		RecordCount:       len(deduped.Records),
		DuplicatesRemoved: deduped.DuplicatesRemoved,
		Stats:             parsed.Stats,
	}, nil
}

// Synchronize 显式触发所有槽位集合同步（幂等）
func (s *ImportService) Synchronize(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := s.docs.Read(ctx, reportID)
	if err != nil {
		return nil, err
	}
	next := report.Clone()
	syncAllSlots(next)
	if err := s.docs.Write(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ImportPhotoBatch 导入一批照片到指定记录族的槽位集合
// 批内文件逐个顺序转码；单文件失败跳过并记入 TranscodeFailed
func (s *ImportService) ImportPhotoBatch(ctx context.Context, reportID string, family domain.Family, files []domain.PhotoFile) (BatchSummary, error) {
	if _, ok := reconcile.ProfileFor(family); !ok {
		return BatchSummary{}, ErrUnknownFamily
	}

	report, err := s.docs.Read(ctx, reportID)
	if err != nil {
		return BatchSummary{}, err
	}

	next := report.Clone()
	syncAllSlots(next)

	batch := reconcile.ClassifyBatch(files)
	summary := BatchSummary{
		PerRole:         map[reconcile.PhotoRole]int{},
		Unclassified:    batch.Unclassified,
		Shadowed:        batch.Shadowed,
		Unmatched:       []string{},
		TranscodeFailed: []string{},
	}

	consumed := s.sessionConsumed(reportID, family)
	s.transcodeGroups(ctx, &batch, consumed, &summary)

	res := reconcile.AssignPhotos(next.Slots[family], next.Labels(family), batch, consumed)
	if !res.Ready {
		// 同步后仍未就绪只可能是编程错误；保守 defer，整批不分配
		s.logger.Error("Photo assignment deferred: slots not synchronized",
			zap.String("report_id", reportID),
			zap.String("family", string(family)),
		)
		return summary, nil
	}

	next.Slots[family] = res.Slots
	if err := s.docs.Write(ctx, next); err != nil {
		return BatchSummary{}, err
	}
	s.storeSession(reportID, family, res.Consumed)

	summary.Assigned = res.Assigned
	summary.AffectedSlots = res.AffectedSlots
	summary.PerRole = res.PerRole
	summary.Unmatched = res.UnmatchedTokens

	s.logger.Info("Imported photo batch",
		zap.String("report_id", reportID),
		zap.String("family", string(family)),
		zap.Int("files", len(files)),
		zap.Int("assigned", res.Assigned),
		zap.Int("affected_slots", res.AffectedSlots),
		zap.Int("unclassified", len(batch.Unclassified)),
		zap.Int("shadowed", len(batch.Shadowed)),
	)
	return summary, nil
}

// transcodeGroups 逐文件转码分组内的待分配文件
// 已消费文件跳过转码；失败文件从分组摘除并记入诊断
func (s *ImportService) transcodeGroups(ctx context.Context, batch *reconcile.ClassifiedBatch, consumed map[string]bool, summary *BatchSummary) {
	for _, token := range batch.Tokens {
		group := batch.Groups[token]
		for _, role := range reconcile.Roles {
			file := group.Get(role)
			if file == nil || consumed[file.Key()] {
				continue
			}
			url, err := s.transcoder.Transcode(ctx, file.Name, file.Data, s.imgOpts)
			if err != nil {
				s.logger.Warn("Photo transcode failed, skipping file",
					zap.String("file_name", file.Name),
					zap.Error(err),
				)
				summary.TranscodeFailed = append(summary.TranscodeFailed, file.Name)
				dropGroupFile(group, role)
				continue
			}
			file.URL = url
		}
	}
}

func dropGroupFile(g *reconcile.RoleGroup, role reconcile.PhotoRole) {
	switch role {
	case reconcile.RoleFrontal:
		g.Frontal = nil
	case reconcile.RolePlayer:
		g.Player = nil
	case reconcile.RoleIPConfig:
		g.IPConfig = nil
	}
}

// syncAllSlots 每个记录族的槽位集合与其 label 并集对齐
func syncAllSlots(report *domain.Report) {
	for _, family := range domain.Families {
		labels := reconcile.UnionLabels(report.Labels(family))
		slots, _ := reconcile.SyncSlots(report.Slots[family], labels)
		report.Slots[family] = slots
	}
}

func sessionKey(reportID string, family domain.Family) string {
	return reportID + "|" + string(family)
}

func (s *ImportService) sessionConsumed(reportID string, family domain.Family) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool)
	for k, v := range s.sessions[sessionKey(reportID, family)] {
		out[k] = v
	}
	return out
}

func (s *ImportService) storeSession(reportID string, family domain.Family, consumed map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(reportID, family)] = consumed
}
