package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned when a product is missing a name or an image.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidImage is returned for undecodable or zero-dimension images.
	ErrInvalidImage = errors.New("invalid image")
	// ErrImportFormat is returned when an import document is not a JSON array.
	ErrImportFormat = errors.New("invalid import format")
	// ErrPersistenceUnavailable is returned when the catalog cannot be written or read back.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrNotFound is returned when a key or product does not exist.
	ErrNotFound = errors.New("not found")
)

type (
	// Product is the only persisted entity. Price is in the smallest currency
	// unit, CreatedAt is epoch milliseconds and Image is a data URI.
	Product struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Price     int64  `json:"price"`
		Notes     string `json:"notes"`
		Image     string `json:"image"`
		CreatedAt int64  `json:"created_at"`
	}
)

// Validate checks the invariants every persisted product must hold.
func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Image == "" {
		return fmt.Errorf("%w: image is required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
