package products

import (
	"errors"
	"fmt"
	"goods-manager/catalog"
	"goods-manager/core"
	"goods-manager/editor"
	"goods-manager/handlers/api"
	"goods-manager/thumbnail"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Options configures the write handlers.
type Options struct {
	// Size is the thumbnail edge length.
	Size int
	// MaxUploadBytes caps an uploaded image before decoding.
	MaxUploadBytes int64
}

func HandleListProducts(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		field, err := catalog.ParseSortField(q.Get("sort"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		order, err := catalog.ParseSortOrder(q.Get("order"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		view := catalog.View(store.Load(r.Context()), catalog.Query{
			Search: q.Get("q"),
			Field:  field,
			Order:  order,
		})
		render.JSON(w, r, view)
	}
}

func HandleGetProduct(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.Get(r.Context(), id)
		if err != nil {
			api.RenderError(w, r, err, "Failed to get product", logrus.Fields{"product_id": id})
			return
		}
		render.JSON(w, r, p)
	}
}

// HandleProductImage serves the stored thumbnail as a plain image.
func HandleProductImage(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.Get(r.Context(), id)
		if err != nil {
			api.RenderError(w, r, err, "Failed to get product", logrus.Fields{"product_id": id})
			return
		}

		data, mediaType, err := thumbnail.DecodeDataURI(p.Image)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"product_id": id,
			}).Error("Stored image is not a data URI")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Stored image is unreadable"})
			return
		}

		w.Header().Set("Content-Type", mediaType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}
}

// HandleSaveProduct creates a product, or edits the one named by the {id}
// URL parameter. An id that no longer exists creates a new product.
func HandleSaveProduct(store *catalog.Store, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		fields := logrus.Fields{"product_id": id}

		sub, err := decodeSubmission(w, r, opts.MaxUploadBytes)
		if err != nil {
			logrus.WithFields(fields).WithError(err).Warn("Failed to read product form")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		defer sub.Close()

		session := editor.Open(r.Context(), store, id, editor.WithSize(opts.Size))
		creating := session.State() == editor.Creating

		if sub.image != nil {
			accept := session.AcceptFile
			if sub.capture {
				accept = session.AcceptCapture
			}
			if err := accept(r.Context(), sub.image); err != nil {
				api.RenderError(w, r, err, "Failed to accept product image", fields)
				return
			}
		}

		p, err := session.Submit(r.Context(), sub.fields)
		if err != nil {
			api.RenderError(w, r, err, "Failed to save product", fields)
			return
		}

		if creating {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, p)
	}
}

func HandleDeleteProduct(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Remove(r.Context(), id); err != nil {
			api.RenderError(w, r, err, "Failed to delete product", logrus.Fields{"product_id": id})
			return
		}
		render.NoContent(w, r)
	}
}

type productRequest struct {
	Name   string `json:"name"`
	Price  any    `json:"price"`
	Notes  string `json:"notes"`
	Image  string `json:"image"`
	Source string `json:"source"`
}

type submission struct {
	fields  editor.Fields
	image   editor.ImageSource
	capture bool
	closers []io.Closer
}

func (s submission) Close() error {
	for _, c := range s.closers {
		c.Close()
	}
	return nil
}

// decodeSubmission reads either a multipart form with an "image" file or a
// JSON body carrying the image as a data URI.
func decodeSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64) (submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return decodeMultipart(r, maxBytes)
	}

	if maxBytes > 0 {
		// base64 inflates the payload by a third.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes*4/3+64<<10)
	}
	var req productRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return submission{}, fmt.Errorf("invalid request body: %w", err)
	}

	sub := submission{
		fields: editor.Fields{
			Name:  req.Name,
			Price: cast.ToString(req.Price),
			Notes: req.Notes,
		},
		capture: req.Source == "capture",
	}
	if req.Image != "" {
		data, _, err := thumbnail.DecodeDataURI(req.Image)
		if err != nil {
			return submission{}, err
		}
		sub.image = editor.Bytes(data)
	}
	return sub, nil
}

func decodeMultipart(r *http.Request, maxBytes int64) (submission, error) {
	memory := maxBytes
	if memory <= 0 {
		memory = 32 << 20
	}
	if err := r.ParseMultipartForm(memory); err != nil {
		return submission{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	sub := submission{
		fields: editor.Fields{
			Name:  r.FormValue("name"),
			Price: r.FormValue("price"),
			Notes: r.FormValue("notes"),
		},
		capture: r.FormValue("source") == "capture",
	}

	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return submission{}, fmt.Errorf("%w: %v", core.ErrInvalidImage, err)
	default:
		sub.image = editor.ReaderSource{R: file, Limit: maxBytes}
		sub.closers = append(sub.closers, file)
	}
	if r.MultipartForm != nil {
		sub.closers = append(sub.closers, closerFunc(r.MultipartForm.RemoveAll))
	}
	return sub, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
