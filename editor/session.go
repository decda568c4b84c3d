// Package editor runs one create-or-edit session for a single product.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"goods-manager/catalog"
	"goods-manager/core"
	"goods-manager/thumbnail"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ErrSessionClosed is returned by any call on a committed or cancelled session.
var ErrSessionClosed = errors.New("edit session is closed")

// State is the position of a Session in its lifecycle.
type State int

const (
	Creating State = iota
	Editing
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Fields is the raw form input. Price is text so that blank or junk input
// can fall back to 0.
type Fields struct {
	Name  string
	Price string
	Notes string
}

// Session is not safe for concurrent use; a caller runs one session at a time.
type Session struct {
	store *catalog.Store
	size  int
	now   func() time.Time
	newID func() string

	state    State
	existing core.Product
	fields   Fields
	image    string
}

// Option configures a Session.
type Option func(*Session)

// WithSize sets the thumbnail edge length.
func WithSize(size int) Option {
	return func(s *Session) { s.size = size }
}

// WithClock replaces time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator replaces the ULID generator for new products.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// Open starts a session. A non-empty id that matches a stored product starts
// in Editing with its fields and image pre-filled; any other id starts in
// Creating, since the product may have been deleted meanwhile.
func Open(ctx context.Context, store *catalog.Store, id string, opts ...Option) *Session {
	s := &Session{
		store: store,
		size:  thumbnail.DefaultSize,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
		state: Creating,
	}
	for _, opt := range opts {
		opt(s)
	}

	if id == "" {
		return s
	}
	log := logrus.WithField("product_id", id)
	p, err := store.Get(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Product to edit not found, creating a new one instead")
		return s
	}

	s.state = Editing
	s.existing = p
	s.image = p.Image
	s.fields = Fields{Name: p.Name, Notes: p.Notes}
	if p.Price != 0 {
		s.fields.Price = fmt.Sprint(p.Price)
	}
	log.Debug("Editing product")
	return s
}

func (s *Session) State() State { return s.state }

// ProductID is the id being edited, or "" while creating.
func (s *Session) ProductID() string {
	if s.state == Editing {
		return s.existing.ID
	}
	return ""
}

// Fields returns the pre-filled form values.
func (s *Session) Fields() Fields { return s.fields }

// Image returns the pending image as a data URI, or "" if none.
func (s *Session) Image() string { return s.image }

// Preview decodes the pending image.
func (s *Session) Preview() (image.Image, error) {
	if s.image == "" {
		return nil, fmt.Errorf("%w: no image selected", core.ErrInvalidImage)
	}
	data, _, err := thumbnail.DecodeDataURI(s.image)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidImage, err)
	}
	return img, nil
}

// AcceptCapture takes an image from a capture device. Captures should already
// be square JPEGs of the session size; anything else is normalized.
func (s *Session) AcceptCapture(ctx context.Context, src ImageSource) error {
	if err := s.open(); err != nil {
		return err
	}
	raw, err := src.AcquireImage(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if isNormalizedJPEG(raw, s.size) {
		s.image = thumbnail.EncodeDataURI(raw)
		return nil
	}
	return s.normalize(raw)
}

// AcceptFile takes an arbitrary image, e.g. from a file picker, and always
// routes it through the normalizer.
func (s *Session) AcceptFile(ctx context.Context, src ImageSource) error {
	if err := s.open(); err != nil {
		return err
	}
	raw, err := src.AcquireImage(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.normalize(raw)
}

// Submit validates f and the pending image and commits the product. On error
// the session stays open and unchanged so the caller can correct and retry.
func (s *Session) Submit(ctx context.Context, f Fields) (core.Product, error) {
	if err := s.open(); err != nil {
		return core.Product{}, err
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return core.Product{}, fmt.Errorf("%w: name is required", core.ErrValidation)
	}
	if s.image == "" {
		return core.Product{}, fmt.Errorf("%w: image is required", core.ErrValidation)
	}

	var p core.Product
	if s.state == Editing {
		p = s.existing
	} else {
		p = core.Product{
			ID:        s.newID(),
			CreatedAt: s.now().UnixMilli(),
		}
	}
	p.Name = name
	p.Price = core.ParseAmount(f.Price)
	p.Notes = strings.TrimSpace(f.Notes)
	p.Image = s.image

	if err := p.Validate(); err != nil {
		return core.Product{}, err
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return core.Product{}, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": p.ID,
		"mode":       s.state.String(),
	}).Info("Product saved")
	s.state = Committed
	return p, nil
}

// Cancel discards the session without touching the store.
func (s *Session) Cancel() error {
	if err := s.open(); err != nil {
		return err
	}
	s.state = Cancelled
	s.image = ""
	return nil
}

func (s *Session) open() error {
	if s.state == Committed || s.state == Cancelled {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) normalize(raw []byte) error {
	out, err := thumbnail.Normalize(raw, s.size)
	if err != nil {
		return err
	}
	s.image = thumbnail.EncodeDataURI(out)
	return nil
}

// isNormalizedJPEG decodes the whole image; a valid header alone does not
// make a truncated capture storable.
func isNormalizedJPEG(raw []byte, size int) bool {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return false
	}
	b := img.Bounds()
	return b.Dx() == size && b.Dy() == size
}
