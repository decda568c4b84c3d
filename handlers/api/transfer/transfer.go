package transfer

import (
	"errors"
	"goods-manager/backup"
	"goods-manager/handlers/api"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// HandleExport streams the catalog as a dated JSON attachment.
func HandleExport(gw *backup.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := gw.Export(r.Context())
		if errors.Is(err, backup.ErrNothingToExport) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "No products to export"})
			return
		}
		if err != nil {
			api.RenderError(w, r, err, "Failed to export catalog", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+backup.ExportFilename(time.Now())+`"`)
		w.Write(data)
	}
}

// HandleImport replaces the catalog with the uploaded document. The caller
// confirms by passing ?confirm=<record count>; without a matching count the
// handler answers 409 with the count to confirm.
func HandleImport(gw *backup.Gateway, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := io.Reader(r.Body)
		if maxBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			logrus.WithError(err).Warn("Failed to read import body")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		confirmed, err := strconv.Atoi(r.URL.Query().Get("confirm"))
		if err != nil {
			confirmed = -1
		}
		var incoming int
		res, err := gw.Import(r.Context(), data, func(count int) bool {
			incoming = count
			return count == confirmed
		})
		if errors.Is(err, backup.ErrImportDeclined) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]any{
				"error":    "Import must be confirmed with the number of incoming records",
				"incoming": incoming,
			})
			return
		}
		if err != nil {
			api.RenderError(w, r, err, "Failed to import catalog", nil)
			return
		}
		render.JSON(w, r, res)
	}
}
