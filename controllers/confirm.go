package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pricesync/config"
	"pricesync/logger"
	"pricesync/models"
	"pricesync/store"
)

// Confirm applies the rows echoed back from a preview. The response is 200
// even when every row failed; per-row results carry the detail.
func (api *API) Confirm(c *gin.Context) {
	if api.Reconciler == nil {
		sendError(c, http.StatusServiceUnavailable, config.ErrMissingCredentials.Error())
		return
	}

	var req models.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Data) == 0 {
		sendError(c, http.StatusBadRequest, "missing-data")
		return
	}

	ctx := c.Request.Context()
	log := zap.L().With(zap.String("request_id", logger.RequestID(c)))

	results := api.Reconciler.Confirm(ctx, req.Data)
	resp := models.ConfirmResponse{Results: results}

	batch := models.NewBatch("", results, time.Now())
	if api.Store != nil {
		saved, err := api.Store.Save(ctx, results)
		if err != nil {
			log.Error("batch not stored", zap.Error(err))
		} else {
			batch = saved
			resp.BatchID = saved.ID
		}
	}
	log.Info("batch confirmed", zap.String("batch_id", batch.ID), zap.Int("total", batch.Total), zap.Int("succeeded", batch.Succeeded))

	if err := api.Notifier.BatchConfirmed(batch); err != nil {
		log.Warn("batch summary failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}

func (api *API) GetBatch(c *gin.Context) {
	if api.Store == nil {
		sendError(c, http.StatusServiceUnavailable, "batch-store-disabled")
		return
	}

	batch, err := api.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrBatchNotFound) {
			sendError(c, http.StatusNotFound, err.Error())
			return
		}
		zap.L().Error("get batch", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, batch)
}
