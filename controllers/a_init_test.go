package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gotest.tools/assert"

	"pricesync/jumpseller"
	"pricesync/jumpseller/jumpsellertest"
	"pricesync/reconcile"
	"pricesync/spreadsheet"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parsePayload(p interface{}) *bytes.Buffer {
	data, _ := json.Marshal(p)
	return bytes.NewBuffer(data)
}

// newTestAPI wires a real reconciler to an in-memory Jumpseller.
func newTestAPI(t *testing.T) (*API, *jumpsellertest.Server) {
	t.Helper()
	srv := jumpsellertest.NewServer()
	t.Cleanup(srv.Close)

	client, err := jumpseller.NewClient(srv.Config())
	assert.NilError(t, err)

	api := NewAPI()
	api.Reconciler = reconcile.New(jumpseller.NewMatcher(client), jumpseller.NewApplier(client, 0, true), spreadsheet.DefaultAliases(), 2)
	api.UploadDir = t.TempDir()
	api.MaxUploadBytes = 1 << 20
	return api, srv
}

func multipartRequest(t *testing.T, url, field, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		assert.NilError(t, err)
		_, err = fw.Write(content)
		assert.NilError(t, err)
	}
	assert.NilError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	assert.NilError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
