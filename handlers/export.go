package handlers

import (
	"fmt"
	"net/http"

	"backend-gold/middleware"
	"backend-gold/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Gold Purchases"

var exportHeaders = []string{"No", "Date", "Time", "Txn ID", "Grams", "Amount (INR)", "Price/g (INR)", "Status"}

// GET /purchases/:user_id/export
func (h *Handler) ExportPurchases(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	purchases, err := h.ledger.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}

	f, err := purchaseWorkbook(purchases)
	if err != nil {
		serverError(c, err)
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("gold_purchases_%d_%s.xlsx", userID, h.now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.Header("Content-Transfer-Encoding", "binary")
	c.Status(http.StatusOK)

	// headers are gone by now, so a failed write can only be logged
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
		middleware.Log(c).WithError(err).Error("export write failed")
	}
}

// sheetWriter keeps the first excelize error and skips the rest.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) value(cell string, v any) {
	if w.err == nil {
		w.err = w.f.SetCellValue(exportSheet, cell, v)
	}
}

func (w *sheetWriter) style(from, to string, s *excelize.Style) {
	if w.err != nil {
		return
	}
	id, err := w.f.NewStyle(s)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(exportSheet, from, to, id)
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(exportSheet, from, to, width)
	}
}

// purchaseWorkbook lays purchases out newest first with a totals row.
func purchaseWorkbook(purchases []models.Purchase) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &sheetWriter{f: f}
	w.err = f.SetSheetName("Sheet1", exportSheet)

	// 1. Header
	for i, title := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil && w.err == nil {
			w.err = err
		}
		w.value(cell, title)
	}
	w.style("A1", "H1", &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#B8860B"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// 2. Rows
	totalGrams, totalInr := decimal.Zero, decimal.Zero
	row := 2
	for i, p := range purchases {
		created := p.CreatedAt.UTC()
		w.value(fmt.Sprintf("A%d", row), i+1)
		w.value(fmt.Sprintf("B%d", row), created.Format("2006-01-02"))
		w.value(fmt.Sprintf("C%d", row), created.Format("15:04:05"))
		w.value(fmt.Sprintf("D%d", row), p.TxnID)
		w.value(fmt.Sprintf("E%d", row), p.Grams)
		w.value(fmt.Sprintf("F%d", row), p.InrAmount)
		w.value(fmt.Sprintf("G%d", row), p.PricePerGram)
		w.value(fmt.Sprintf("H%d", row), p.Status)

		totalGrams = totalGrams.Add(decimal.NewFromFloat(p.Grams))
		totalInr = totalInr.Add(decimal.NewFromFloat(p.InrAmount))
		row++
	}

	// 3. Totals
	w.value(fmt.Sprintf("D%d", row), "Total")
	w.value(fmt.Sprintf("E%d", row), totalGrams.InexactFloat64())
	w.value(fmt.Sprintf("F%d", row), totalInr.InexactFloat64())
	w.style(fmt.Sprintf("D%d", row), fmt.Sprintf("F%d", row), &excelize.Style{Font: &excelize.Font{Bold: true}})

	w.width("A", "A", 5)
	w.width("B", "C", 12)
	w.width("D", "D", 38)
	w.width("E", "H", 15)

	if w.err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("build export: %w", w.err)
	}
	return f, nil
}
