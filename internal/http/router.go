package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterReportRoutes 报告文档 + 导入路由
func (r *Router) RegisterReportRoutes(h *ReportHandler, imp *ImportHandler) {
	r.Handle("/report/api/v1/reports", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.CreateReport(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /reports/{id} 及其子资源
	r.Handle("/report/api/v1/reports/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/report/api/v1/reports/")
		id, sub, _ := strings.Cut(rest, "/")
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch {
		case sub == "" && req.Method == http.MethodGet:
			h.GetReport(w, req, id)
		case sub == "" && req.Method == http.MethodPut:
			h.UpdateReport(w, req, id)
		case sub == "sync" && req.Method == http.MethodPost:
			h.SyncReport(w, req, id)
		case sub == "export" && req.Method == http.MethodGet:
			h.ExportReport(w, req, id)
		case sub == "archive" && req.Method == http.MethodPost:
			h.ArchiveReport(w, req, id)
		case sub == "import/spreadsheet" && req.Method == http.MethodPost:
			imp.ImportSpreadsheet(w, req, id)
		case sub == "import/photos" && req.Method == http.MethodPost:
			imp.ImportPhotos(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/report/api/v1/archive", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListArchive(w, req)
	})

	r.Handle("/report/api/v1/archive/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, "/report/api/v1/archive/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetArchivedSnapshot(w, req, id)
	})
}
