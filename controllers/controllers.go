package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"pricesync/models"
	"pricesync/notify"
	"pricesync/spreadsheet"
)

var (
	headerStyle = &excelize.Style{
		Border: border,
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#96B753"}},
		Font:   &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{
			Horizontal:  "center",
			ShrinkToFit: true,
		},
	}
	dataStyle = &excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{ShrinkToFit: true},
	}
	border = []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
)

var genericOK = models.GenericResponse{Message: "ok"}

type Reconciler interface {
	Preview(ctx context.Context, rows []spreadsheet.Row) []models.PreviewRow
	Confirm(ctx context.Context, rows []models.PreviewRow) []models.UpdateOutcome
}

type BatchStore interface {
	Save(ctx context.Context, results []models.UpdateOutcome) (models.Batch, error)
	Get(ctx context.Context, id string) (models.Batch, error)
}

// API holds the handler dependencies. Reconciler is nil when the remote
// credentials are missing and Store is nil when no Redis is configured.
type API struct {
	Reconciler     Reconciler
	Store          BatchStore
	Notifier       notify.Notifier
	UploadDir      string
	MaxUploadBytes int64
}

func NewAPI() *API {
	return &API{Notifier: notify.Nop{}}
}

func sendError(c *gin.Context, code int, msg string) {
	c.JSON(code, models.ErrorResponse{Error: msg})
}

func (api *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, genericOK)
}
