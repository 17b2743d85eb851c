package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"asbuilt-data/internal/domain"
	"asbuilt-data/internal/service"
	"asbuilt-data/internal/store"

	"go.uber.org/zap"
)

// ImportHandler 表格/照片导入端点（multipart 上传）
type ImportHandler struct {
	svc    *service.ImportService
	logger *zap.Logger
}

// NewImportHandler 创建导入 Handler
func NewImportHandler(svc *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, logger: logger}
}

// ImportSpreadsheet 上传验收表格（form field: file）
func (h *ImportHandler) ImportSpreadsheet(w http.ResponseWriter, r *http.Request, reportID string) {
	if err := r.ParseMultipartForm(20 << 20); err != nil { // 20MB max
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("file not found in request"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to read file"))
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusOK, Fail("file is empty"))
		return
	}

	summary, err := h.svc.ImportSpreadsheet(r.Context(), reportID, header.Filename, data)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeJSON(w, http.StatusOK, Fail("report not found"))
			return
		}
		h.logger.Error("ImportSpreadsheet failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to import: %v", err)))
		return
	}

	// 数据质量问题按 warning 返回（稳态情形，前端负责汇总提示）
	if summary.SourceMismatch {
		writeJSON(w, http.StatusOK, Warn("file does not match any record family", summary))
		return
	}
	if summary.RecordCount == 0 {
		writeJSON(w, http.StatusOK, Warn("no matching rows in spreadsheet", summary))
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

// ImportPhotos 上传照片批（form field: files，可多个；query: family）
func (h *ImportHandler) ImportPhotos(w http.ResponseWriter, r *http.Request, reportID string) {
	family := domain.Family(r.URL.Query().Get("family"))
	if family == "" {
		writeJSON(w, http.StatusOK, Fail("family query parameter is required"))
		return
	}

	if err := r.ParseMultipartForm(256 << 20); err != nil { // 照片批可观
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		writeJSON(w, http.StatusOK, Fail("no files in request"))
		return
	}

	files := make([]domain.PhotoFile, 0, len(r.MultipartForm.File["files"]))
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("Skipping unreadable upload", zap.String("file_name", fh.Filename), zap.Error(err))
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.logger.Warn("Skipping unreadable upload", zap.String("file_name", fh.Filename), zap.Error(err))
			continue
		}
		files = append(files, domain.PhotoFile{
			Name: fh.Filename,
			Size: fh.Size,
			Data: data,
		})
	}

	summary, err := h.svc.ImportPhotoBatch(r.Context(), reportID, family, files)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeJSON(w, http.StatusOK, Fail("report not found"))
			return
		}
		if errors.Is(err, service.ErrUnknownFamily) {
			writeJSON(w, http.StatusOK, Fail("unknown record family"))
			return
		}
		h.logger.Error("ImportPhotos failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to import photos: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}
