package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"asbuilt-data/internal/domain"
	"asbuilt-data/internal/imaging"
	"asbuilt-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*ImportService, *store.DocumentStore) {
	t.Helper()
	docs := store.NewDocumentStore(store.NewMemoryKV())
	svc := NewImportService(docs, imaging.NewLocalTranscoder(), imaging.Options{MaxDimension: 1600, Quality: 80}, zap.NewNop())
	return svc, docs
}

// buildScreensSheet 构造 screens 验收表（C=状态列, U=类型列）
func buildScreensSheet(t *testing.T, rows [][3]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, r := range rows {
		rowNum := i + 3 // DataStartRow=2（0 起），excel 行号 1 起
		require.NoError(t, f.SetCellValue("Sheet1", cellName(t, 1, rowNum), r[0]))
		require.NoError(t, f.SetCellValue("Sheet1", cellName(t, 3, rowNum), r[1]))
		require.NoError(t, f.SetCellValue("Sheet1", cellName(t, 21, rowNum), r[2]))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func cellName(t *testing.T, col, row int) string {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col, row)
	require.NoError(t, err)
	return cell
}

func photoFile(name string) domain.PhotoFile {
	return domain.PhotoFile{Name: name, Size: int64(len(name)), Data: []byte{0xFF, 0xD8, 0x01}}
}

func TestImportSpreadsheet_FullPipeline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, "Dijon", "C-42")
	require.NoError(t, err)

	sheet := buildScreensSheet(t, [][3]string{
		{"LED_PILARES_0F_MAN_S1", "ALTA", "LED-A"},
		{"OTRA_COSA", "ALTA", "OTHER"},
		{"LED_BAJA_S2", "BAJA", "LED-B"},
		{"LED_DUP_S1", "ALTA", "LED-C"},
	})

	summary, err := svc.ImportSpreadsheet(ctx, report.ReportID, "VALIDACION_MKD_DIJON.xlsx", sheet)
	require.NoError(t, err)
	assert.False(t, summary.SourceMismatch)
	assert.Equal(t, domain.FamilyScreens, summary.Family)
	assert.Equal(t, 1, summary.RecordCount)
	assert.Equal(t, 1, summary.DuplicatesRemoved)

	got, err := svc.GetReport(ctx, report.ReportID)
	require.NoError(t, err)
	require.Len(t, got.Records[domain.FamilyScreens], 1)
	assert.Equal(t, "LED_PILARES_0F_MAN_S1", got.Records[domain.FamilyScreens][0].Label)

	// 槽位已随导入同步
	require.Len(t, got.Slots[domain.FamilyScreens], 1)
	assert.Equal(t, "S1", got.Slots[domain.FamilyScreens][0].IdentityToken)
}

func TestImportSpreadsheet_FilenameGate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, "", "")
	require.NoError(t, err)

	summary, err := svc.ImportSpreadsheet(ctx, report.ReportID, "INVENTARIO.xlsx", nil)
	require.NoError(t, err)
	assert.True(t, summary.SourceMismatch)

	// 未发生部分导入
	got, err := svc.GetReport(ctx, report.ReportID)
	require.NoError(t, err)
	assert.Empty(t, got.Records[domain.FamilyScreens])
}

func TestImportPhotoBatch_AssignsAndSummarizes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, "", "")
	require.NoError(t, err)

	sheet := buildScreensSheet(t, [][3]string{
		{"LED_A_S1", "ALTA", "LED"},
		{"LED_B_S2", "ALTA", "LED"},
	})
	_, err = svc.ImportSpreadsheet(ctx, report.ReportID, "VALIDACION_MKD.xlsx", sheet)
	require.NoError(t, err)

	summary, err := svc.ImportPhotoBatch(ctx, report.ReportID, domain.FamilyScreens, []domain.PhotoFile{
		photoFile("X_S1_FRONTAL.jpg"),
		photoFile("X_S1_PLAYER_SENDING.jpg"),
		photoFile("X_S2_FRONTAL.jpg"),
		photoFile("SINTOKEN.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Assigned)
	assert.Equal(t, 2, summary.AffectedSlots)
	require.Len(t, summary.Unclassified, 1)
	assert.Equal(t, "SINTOKEN.jpg", summary.Unclassified[0].FileName)

	got, err := svc.GetReport(ctx, report.ReportID)
	require.NoError(t, err)
	slots := got.Slots[domain.FamilyScreens]
	require.Len(t, slots, 2)
	assert.Equal(t, "X_S1_FRONTAL.jpg", slots[0].Frontal.FileName)
	assert.NotEmpty(t, slots[0].Frontal.URL)
	assert.Equal(t, "X_S1_PLAYER_SENDING.jpg", slots[0].Player.FileName)
	assert.Equal(t, "X_S2_FRONTAL.jpg", slots[1].Frontal.FileName)
	assert.True(t, slots[1].Player.IsEmpty())
}

func TestImportPhotoBatch_ReimportDoesNotOverwrite(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, "", "")
	require.NoError(t, err)

	sheet := buildScreensSheet(t, [][3]string{{"LED_A_S1", "ALTA", "LED"}})
	_, err = svc.ImportSpreadsheet(ctx, report.ReportID, "VALIDACION_MKD.xlsx", sheet)
	require.NoError(t, err)

	_, err = svc.ImportPhotoBatch(ctx, report.ReportID, domain.FamilyScreens, []domain.PhotoFile{
		photoFile("OLD_S1_FRONTAL.jpg"),
	})
	require.NoError(t, err)

	summary, err := svc.ImportPhotoBatch(ctx, report.ReportID, domain.FamilyScreens, []domain.PhotoFile{
		photoFile("NEW_S1_FRONTAL.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Assigned)

	got, err := svc.GetReport(ctx, report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "OLD_S1_FRONTAL.jpg", got.Slots[domain.FamilyScreens][0].Frontal.FileName)
}

func TestImportPhotoBatch_TranscodeFailureSkipsFile(t *testing.T) {
	docs := store.NewDocumentStore(store.NewMemoryKV())
	svc := NewImportService(docs, failingTranscoder{fail: "X_S1_FRONTAL.jpg"}, imaging.Options{}, zap.NewNop())
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, "", "")
	require.NoError(t, err)

	sheet := buildScreensSheet(t, [][3]string{{"LED_A_S1", "ALTA", "LED"}})
	_, err = svc.ImportSpreadsheet(ctx, report.ReportID, "VALIDACION_MKD.xlsx", sheet)
	require.NoError(t, err)

	summary, err := svc.ImportPhotoBatch(ctx, report.ReportID, domain.FamilyScreens, []domain.PhotoFile{
		photoFile("X_S1_FRONTAL.jpg"),
		photoFile("X_S1_PLAYER_SENDING.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"X_S1_FRONTAL.jpg"}, summary.TranscodeFailed)
	assert.Equal(t, 1, summary.Assigned)

	got, err := svc.GetReport(ctx, report.ReportID)
	require.NoError(t, err)
	slot := got.Slots[domain.FamilyScreens][0]
	assert.True(t, slot.Frontal.IsEmpty())
	assert.Equal(t, "X_S1_PLAYER_SENDING.jpg", slot.Player.FileName)
}

func TestImportPhotoBatch_UnknownFamily(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ImportPhotoBatch(context.Background(), "r", domain.Family("posters"), nil)
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestSynchronize_PrunesRemovedLabels(t *testing.T) {
	svc, docs := newTestService(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, "", "")
	require.NoError(t, err)

	sheet := buildScreensSheet(t, [][3]string{
		{"LED_A_S1", "ALTA", "LED"},
		{"LED_B_S2", "ALTA", "LED"},
	})
	_, err = svc.ImportSpreadsheet(ctx, report.ReportID, "VALIDACION_MKD.xlsx", sheet)
	require.NoError(t, err)

	// 编辑器删除一条记录后整篇写回
	got, err := svc.GetReport(ctx, report.ReportID)
	require.NoError(t, err)
	got.Records[domain.FamilyScreens] = got.Records[domain.FamilyScreens][:1]
	require.NoError(t, docs.Write(ctx, got))

	synced, err := svc.Synchronize(ctx, report.ReportID)
	require.NoError(t, err)
	require.Len(t, synced.Slots[domain.FamilyScreens], 1)
	assert.Equal(t, "LED_A_S1", synced.Slots[domain.FamilyScreens][0].Label)
}

// failingTranscoder 指定文件名转码失败，其余走 data URL
type failingTranscoder struct {
	fail string
}

func (f failingTranscoder) Transcode(_ context.Context, fileName string, _ []byte, _ imaging.Options) (string, error) {
	if fileName == f.fail {
		return "", errors.New("boom")
	}
	return "data:image/jpeg;base64,QQ==", nil
}
