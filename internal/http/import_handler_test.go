package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"asbuilt-data/internal/imaging"
	"asbuilt-data/internal/service"
	"asbuilt-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	docs := store.NewDocumentStore(store.NewMemoryKV())
	svc := service.NewImportService(docs, imaging.NewLocalTranscoder(), imaging.Options{}, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterReportRoutes(
		NewReportHandler(svc, nil, zap.NewNop()),
		NewImportHandler(svc, zap.NewNop()),
	)
	return router
}

func doJSON(t *testing.T, router *Router, method, path string, body any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func minimalScreensSheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	// 数据行在第 3 行（header offset 2）
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "LED_A_S1"))
	require.NoError(t, f.SetCellValue("Sheet1", "C3", "ALTA"))
	require.NoError(t, f.SetCellValue("Sheet1", "U3", "LED"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func createReport(t *testing.T, router *Router) string {
	t.Helper()
	out := doJSON(t, router, http.MethodPost, "/report/api/v1/reports", map[string]any{"site_name": "Dijon"})
	require.EqualValues(t, ResultSuccess, out["code"])
	result := out["result"].(map[string]any)
	return result["report_id"].(string)
}

func TestCreateAndGetReport(t *testing.T) {
	router := newTestRouter(t)
	id := createReport(t, router)

	out := doJSON(t, router, http.MethodGet, "/report/api/v1/reports/"+id, nil)
	require.EqualValues(t, ResultSuccess, out["code"])
	result := out["result"].(map[string]any)
	assert.Equal(t, "Dijon", result["site_name"])
}

func TestGetReport_NotFound(t *testing.T) {
	router := newTestRouter(t)
	out := doJSON(t, router, http.MethodGet, "/report/api/v1/reports/missing", nil)
	assert.EqualValues(t, ResultError, out["code"])
}

func TestImportSpreadsheetEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createReport(t, router)

	body, contentType := multipartUpload(t, "file", "VALIDACION_MKD_DIJON.xlsx", minimalScreensSheet(t))
	req := httptest.NewRequest(http.MethodPost, "/report/api/v1/reports/"+id+"/import/spreadsheet", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.EqualValues(t, ResultSuccess, out["code"])
	assert.Equal(t, "success", out["type"])

	result := out["result"].(map[string]any)
	assert.EqualValues(t, 1, result["record_count"])
}

func TestImportSpreadsheetEndpoint_GateWarning(t *testing.T) {
	router := newTestRouter(t)
	id := createReport(t, router)

	body, contentType := multipartUpload(t, "file", "INVENTARIO.xlsx", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/report/api/v1/reports/"+id+"/import/spreadsheet", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "warning", out["type"])
}

func TestImportPhotosEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createReport(t, router)

	// 先导入表格，建立槽位
	sheetBody, ct := multipartUpload(t, "file", "VALIDACION_MKD.xlsx", minimalScreensSheet(t))
	req := httptest.NewRequest(http.MethodPost, "/report/api/v1/reports/"+id+"/import/spreadsheet", sheetBody)
	req.Header.Set("Content-Type", ct)
	router.ServeHTTP(httptest.NewRecorder(), req)

	photoBody, ct := multipartUpload(t, "files", "X_S1_FRONTAL.jpg", []byte{0xFF, 0xD8, 0x01})
	req = httptest.NewRequest(http.MethodPost, "/report/api/v1/reports/"+id+"/import/photos?family=screens", photoBody)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.EqualValues(t, ResultSuccess, out["code"])

	result := out["result"].(map[string]any)
	assert.EqualValues(t, 1, result["assigned"])

	// 槽位已带上照片
	got := doJSON(t, router, http.MethodGet, "/report/api/v1/reports/"+id, nil)
	slots := got["result"].(map[string]any)["slots"].(map[string]any)["screens"].([]any)
	require.Len(t, slots, 1)
	assert.Equal(t, "X_S1_FRONTAL.jpg", slots[0].(map[string]any)["frontal"].(map[string]any)["file_name"])
}

func TestArchiveEndpoints_DisabledWithoutDB(t *testing.T) {
	router := newTestRouter(t)
	id := createReport(t, router)

	out := doJSON(t, router, http.MethodPost, "/report/api/v1/reports/"+id+"/archive", nil)
	assert.EqualValues(t, ResultError, out["code"])

	out = doJSON(t, router, http.MethodGet, "/report/api/v1/archive", nil)
	assert.EqualValues(t, ResultError, out["code"])
}
