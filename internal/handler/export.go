package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeFmt   = "02/01/2006 15:04:05"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportHandler writes records, movement history and reports as files.
type ExportHandler struct {
	Service *aih.Service
	Logger  *logrus.Logger
}

func NewExportHandler(svc *aih.Service, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{Service: svc, Logger: logger}
}

func attachment(c *gin.Context, contentType, name string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
}

// ExportRecords GET /api/export/:format (json | csv | xlsx)
func (h *ExportHandler) ExportRecords(c *gin.Context) {
	format := c.Param("format")
	if format != "json" && format != "csv" && format != "xlsx" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Formato não suportado")
		return
	}

	rows, err := h.Service.ExportRecords(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	name := "export-aih-" + time.Now().Format("20060102")
	switch format {
	case "json":
		util.Success(c, util.Response{"items": rows})
	case "csv":
		attachment(c, csvContentType, name+".csv")
		c.Status(http.StatusOK)
		if err := writeRecordsCSV(c.Writer, rows); err != nil {
			config.LogError(h.Logger, "handler", "ExportRecords", "write csv", nil, err)
		}
	case "xlsx":
		h.writeXLSX(c, name+".xlsx", "AIHs", recordsTable(rows))
	}
}

// ExportMovements GET /api/aih/:id/movements/export/:format (csv | xlsx)
func (h *ExportHandler) ExportMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	format := c.Param("format")
	if format != "csv" && format != "xlsx" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Formato não suportado")
		return
	}

	rec, entries, err := h.Service.HistoryWithUsers(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	name := fmt.Sprintf("historico-movimentacoes-AIH-%s-%s", rec.Number, time.Now().Format("2006-01-02"))
	if format == "csv" {
		attachment(c, csvContentType, name+".csv")
		c.Status(http.StatusOK)
		if err := writeMovementsCSV(c.Writer, entries); err != nil {
			config.LogError(h.Logger, "handler", "ExportMovements", "write csv", id, err)
		}
		return
	}
	h.writeXLSX(c, name+".xlsx", "Histórico AIH "+rec.Number, movementsTable(entries))
}

// ExportReport GET /api/reports/:kind/export?competence=&start_date=&end_date=
func (h *ExportHandler) ExportReport(c *gin.Context) {
	kind := aih.ReportKind(c.Param("kind"))
	rep, err := h.Service.Report(c.Request.Context(), kind, scopeFromQuery(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	name := fmt.Sprintf("relatorio-%s-%s.xlsx", kind, time.Now().Format("2006-01-02"))
	h.writeXLSX(c, name, "Relatório", rep.Result.Table())
}

func (h *ExportHandler) writeXLSX(c *gin.Context, fileName, sheet string, table aih.Table) {
	f, err := buildWorkbook(sheet, table)
	if err != nil {
		config.LogError(h.Logger, "handler", "writeXLSX", "build workbook", fileName, err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao gerar planilha")
		return
	}
	defer f.Close()

	attachment(c, xlsxContentType, fileName)
	if err := f.Write(c.Writer); err != nil {
		config.LogError(h.Logger, "handler", "writeXLSX", "write workbook", fileName, err)
	}
}

// buildWorkbook writes table into a single-sheet workbook. Sheet names are
// capped at 31 characters by the xlsx format.
func buildWorkbook(sheet string, table aih.Table) (*excelize.File, error) {
	if len([]rune(sheet)) > 31 {
		sheet = string([]rune(sheet)[:31])
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	for col, header := range table.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	for r, row := range table.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}

	if n := len(table.Headers); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)
		_ = f.SetColWidth(sheet, "A", last, 18)
	}
	return f, nil
}

// cellValue turns values excelize cannot type natively into plain cells.
func cellValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(exportTimeFmt)
	case interface{ InexactFloat64() float64 }:
		return x.InexactFloat64()
	case fmt.Stringer:
		return x.String()
	}
	return v
}

var recordHeaders = []string{
	"Número AIH", "Valor Inicial", "Valor Atual", "Status", "Competência",
	"Total Glosas/Pendências", "Atendimentos", "Criado em",
}

func recordsTable(rows []aih.ExportRow) aih.Table {
	t := aih.Table{Headers: recordHeaders}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.Number,
			r.InitialValue,
			r.CurrentValue,
			r.Status.Label(),
			r.Competence,
			r.ActiveGlosas,
			strings.Join(r.Attendances, ", "),
			r.CreatedAt.Format("02/01/2006"),
		})
	}
	return t
}

func writeRecordsCSV(w io.Writer, rows []aih.ExportRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"numero_aih", "valor_inicial", "valor_atual", "status", "competencia",
		"total_glosas", "atendimentos", "criado_em",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Number,
			r.InitialValue.StringFixed(2),
			r.CurrentValue.StringFixed(2),
			fmt.Sprint(int(r.Status)),
			r.Competence,
			fmt.Sprint(r.ActiveGlosas),
			strings.Join(r.Attendances, ","),
			r.CreatedAt.Format(exportTimeFmt),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var movementCSVHeaders = []string{
	"Data", "Tipo", "Status", "Valor", "Competencia",
	"Prof_Medicina", "Prof_Enfermagem", "Prof_Fisioterapia", "Prof_Bucomaxilo",
	"Usuario", "Observacoes",
}

var movementHeaders = []string{
	"Data", "Tipo", "Status", "Valor da Conta", "Competência",
	"Profissional Medicina", "Profissional Enfermagem", "Profissional Fisioterapia", "Profissional Bucomaxilo",
	"Usuário Responsável", "Observações",
}

func movementsTable(entries []aih.HistoryEntry) aih.Table {
	t := aih.Table{Headers: movementHeaders}
	for _, e := range entries {
		t.Rows = append(t.Rows, []any{
			e.MovedAt.Format(exportTimeFmt),
			e.Kind.Label(),
			e.ResultingStatus.Label(),
			e.Value,
			e.Competence,
			e.ProfMedicine,
			e.ProfNursing,
			e.ProfPhysio,
			e.ProfMaxillo,
			e.Username,
			e.Note,
		})
	}
	return t
}

// writeMovementsCSV writes the history (newest first) with a UTF-8 BOM so
// spreadsheet apps pick the right encoding.
func writeMovementsCSV(w io.Writer, entries []aih.HistoryEntry) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(movementCSVHeaders); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			e.MovedAt.Format(exportTimeFmt),
			e.Kind.Label(),
			e.ResultingStatus.Label(),
			e.Value.StringFixed(2),
			e.Competence,
			e.ProfMedicine,
			e.ProfNursing,
			e.ProfPhysio,
			e.ProfMaxillo,
			e.Username,
			e.Note,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
