package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"asbuilt-data/internal/domain"
	"asbuilt-data/internal/excel"
	"asbuilt-data/internal/repository"
	"asbuilt-data/internal/service"
	"asbuilt-data/internal/store"

	"go.uber.org/zap"
)

// ReportHandler 报告文档 CRUD + 导出 + 归档
// 归档依赖 DB；未启用时相关端点返回 Fail
type ReportHandler struct {
	svc       *service.ImportService
	snapshots *repository.SnapshotsRepository
	logger    *zap.Logger
}

// NewReportHandler 创建报告 Handler（snapshots 可为 nil：DB 未启用）
func NewReportHandler(svc *service.ImportService, snapshots *repository.SnapshotsRepository, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, snapshots: snapshots, logger: logger}
}

// CreateReport 新建报告
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SiteName    string `json:"site_name"`
		ContractRef string `json:"contract_ref"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	report, err := h.svc.CreateReport(r.Context(), payload.SiteName, payload.ContractRef)
	if err != nil {
		h.logger.Error("CreateReport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create report: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// GetReport 读取整篇文档
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	report, err := h.svc.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeJSON(w, http.StatusOK, Fail("report not found"))
			return
		}
		h.logger.Error("GetReport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to get report: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// UpdateReport 整篇覆盖（编辑器提交）
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request, reportID string) {
	var report domain.Report
	if err := readBodyJSON(r, 64<<20, &report); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	report.ReportID = reportID

	updated, err := h.svc.UpdateReport(r.Context(), &report)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeJSON(w, http.StatusOK, Fail("report not found"))
			return
		}
		h.logger.Error("UpdateReport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to update report: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

// SyncReport 显式槽位同步
func (h *ReportHandler) SyncReport(w http.ResponseWriter, r *http.Request, reportID string) {
	report, err := h.svc.Synchronize(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeJSON(w, http.StatusOK, Fail("report not found"))
			return
		}
		h.logger.Error("SyncReport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to synchronize: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// ExportReport 导出 .xlsx 汇总
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request, reportID string) {
	report, err := h.svc.GetReport(r.Context(), reportID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("report not found"))
		return
	}

	data, err := excel.ExportReport(report)
	if err != nil {
		h.logger.Error("ExportReport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=asbuilt-report.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ArchiveReport 把当前文档归档为快照
func (h *ReportHandler) ArchiveReport(w http.ResponseWriter, r *http.Request, reportID string) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusOK, Fail("archive is not enabled"))
		return
	}

	report, err := h.svc.GetReport(r.Context(), reportID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("report not found"))
		return
	}

	snapshotID, err := h.snapshots.Save(r.Context(), report)
	if err != nil {
		h.logger.Error("ArchiveReport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to archive: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"snapshot_id": snapshotID}))
}

// ListArchive 归档列表
func (h *ReportHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusOK, Fail("archive is not enabled"))
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 100)
	metas, err := h.snapshots.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("ListArchive failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list archive: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": metas,
		"total": len(metas),
	}))
}

// GetArchivedSnapshot 取回归档快照全文
func (h *ReportHandler) GetArchivedSnapshot(w http.ResponseWriter, r *http.Request, snapshotID string) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusOK, Fail("archive is not enabled"))
		return
	}

	report, err := h.snapshots.Get(r.Context(), snapshotID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to get snapshot: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}
