package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pricesync/config"
	"pricesync/logger"
	"pricesync/models"
	"pricesync/notify"
	"pricesync/spreadsheet"
)

// Upload reads the sheet in the "file" form field and returns the preview.
// Nothing is written to the remote catalog.
func (api *API) Upload(c *gin.Context) {
	if api.Reconciler == nil {
		sendError(c, http.StatusServiceUnavailable, config.ErrMissingCredentials.Error())
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, "missing-file")
		return
	}
	if !spreadsheet.Supported(header.Filename) {
		sendError(c, http.StatusBadRequest, spreadsheet.ErrUnsupportedFormat.Error())
		return
	}
	if api.MaxUploadBytes > 0 && header.Size > api.MaxUploadBytes {
		sendError(c, http.StatusRequestEntityTooLarge, "file-too-large")
		return
	}

	log := zap.L().With(zap.String("request_id", logger.RequestID(c)), zap.String("file", header.Filename))

	tmp, err := os.CreateTemp(api.UploadDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		log.Error("create temp file", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := c.SaveUploadedFile(header, path); err != nil {
		log.Error("save upload", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := spreadsheet.ReadFile(path, header.Filename)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) || errors.Is(err, spreadsheet.ErrNoHeader) {
			sendError(c, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("read sheet", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	preview := api.Reconciler.Preview(c.Request.Context(), rows)
	log.Info("preview built", zap.Int("rows", len(preview)))

	if c.Query("export_as_excel") == "true" {
		handleExcelPreview(c, preview)
		return
	}

	c.JSON(http.StatusOK, models.PreviewResponse{Preview: preview})
}

var previewHeader = []string{"Row", "SKU", "Product", "Price", "Date", "Jumpseller ID", "Status", "SKU error", "Suggestion"}

func handleExcelPreview(c *gin.Context, preview []models.PreviewRow) {
	if len(preview) == 0 {
		sendError(c, http.StatusNotFound, "rows-not-found")
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	hStyle, err := f.NewStyle(headerStyle)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	dStyle, err := f.NewStyle(dataStyle)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	streamWriter, err := f.NewStreamWriter(sheet)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := streamWriter.SetColWidth(1, len(previewHeader), 22); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	head := make([]interface{}, len(previewHeader))
	for i, h := range previewHeader {
		head[i] = excelize.Cell{StyleID: hStyle, Value: h}
	}
	if err := streamWriter.SetRow("A1", head); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	for n, p := range preview {
		price := ""
		if p.PriceNew != "" {
			price = "$" + notify.FormatPrice(p.PriceNew)
		}
		id := ""
		if p.JumpsellerID != nil {
			id = strconv.FormatInt(*p.JumpsellerID, 10)
		}

		row := []interface{}{
			excelize.Cell{StyleID: dStyle, Value: p.Row},
			excelize.Cell{StyleID: dStyle, Value: p.SKU},
			excelize.Cell{StyleID: dStyle, Value: p.ProductName},
			excelize.Cell{StyleID: dStyle, Value: price},
			excelize.Cell{StyleID: dStyle, Value: p.DateNew},
			excelize.Cell{StyleID: dStyle, Value: id},
			excelize.Cell{StyleID: dStyle, Value: p.APIStatus},
			excelize.Cell{StyleID: dStyle, Value: p.ErrorCodInt},
			excelize.Cell{StyleID: dStyle, Value: p.Suggestion},
		}

		cell, _ := excelize.CoordinatesToCellName(1, n+2)
		if err := streamWriter.SetRow(cell, row); err != nil {
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := streamWriter.Flush(); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	fileName := fmt.Sprintf("preview_%s.xlsx", time.Now().UTC().Format("20060102_150405"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment;filename=\""+fileName+"\"")

	if _, err := f.WriteTo(c.Writer); err != nil {
		zap.L().Error("write preview workbook", zap.Error(err))
	}
}
