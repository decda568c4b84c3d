// Package backup moves the whole catalog in and out of a portable JSON file.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"goods-manager/catalog"
	"goods-manager/core"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

var (
	// ErrNothingToExport is returned when exporting an empty catalog.
	ErrNothingToExport = errors.New("no products to export")
	// ErrImportDeclined is returned when the confirmation step refuses an import.
	ErrImportDeclined = errors.New("import declined")
)

// Policy decides what happens to imported records that break product invariants.
type Policy string

const (
	// PolicyRepair fills missing ids, prices, notes and timestamps, gives
	// duplicate ids a fresh one and drops records without a name or image.
	PolicyRepair Policy = "repair"
	// PolicyStrict rejects the whole document if any record is invalid.
	PolicyStrict Policy = "strict"
	// PolicyPermissive stores every object record as decoded.
	PolicyPermissive Policy = "permissive"
)

// ParsePolicy maps a configuration value to a Policy. Empty means repair.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyRepair, nil
	case PolicyRepair, PolicyStrict, PolicyPermissive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown import policy %q", s)
	}
}

// Confirmer is asked, with the number of incoming records, before an import
// replaces the catalog. Returning false aborts the import.
type Confirmer func(count int) bool

// Result summarises a finished import.
type Result struct {
	Incoming int   `json:"incoming"`
	Imported int   `json:"imported"`
	Repaired int   `json:"repaired"`
	Dropped  []int `json:"dropped,omitempty"`
}

// Export renders products as an indented JSON array.
func Export(products []core.Product) ([]byte, error) {
	if len(products) == 0 {
		return nil, ErrNothingToExport
	}
	return json.MarshalIndent(products, "", "  ")
}

// ExportFilename is the download name for a backup taken at t.
func ExportFilename(t time.Time) string {
	return "goods-manager-backup-" + t.UTC().Format("2006-01-02") + ".json"
}

// Gateway imports into and exports from a catalog.Store.
type Gateway struct {
	store  *catalog.Store
	policy Policy
	now    func() time.Time
	newID  func() string
}

// NewGateway returns a Gateway applying policy to imports.
func NewGateway(store *catalog.Store, policy Policy) *Gateway {
	if policy == "" {
		policy = PolicyRepair
	}
	return &Gateway{
		store:  store,
		policy: policy,
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
}

// Export serializes the current catalog.
func (g *Gateway) Export(ctx context.Context) ([]byte, error) {
	return Export(g.store.Load(ctx))
}

// Import parses data and, once confirm approves, replaces the whole catalog
// with it. Parse and policy failures leave the catalog untouched.
func (g *Gateway) Import(ctx context.Context, data []byte, confirm Confirmer) (Result, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("%w: %v", core.ErrImportFormat, err)
	}
	records, ok := doc.([]any)
	if !ok {
		return Result{}, fmt.Errorf("%w: top-level value must be an array", core.ErrImportFormat)
	}

	products, res, err := g.convert(records)
	if err != nil {
		return Result{}, err
	}
	log := logrus.WithFields(logrus.Fields{
		"policy":   g.policy,
		"incoming": res.Incoming,
		"imported": res.Imported,
		"repaired": res.Repaired,
		"dropped":  len(res.Dropped),
	})

	if confirm == nil || !confirm(res.Incoming) {
		log.Info("Import declined")
		return Result{}, ErrImportDeclined
	}
	if err := g.store.ReplaceAll(ctx, products); err != nil {
		return Result{}, err
	}
	log.Info("Catalog imported")
	return res, nil
}

func (g *Gateway) convert(records []any) ([]core.Product, Result, error) {
	res := Result{Incoming: len(records)}
	products := make([]core.Product, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			if g.policy == PolicyStrict {
				return nil, Result{}, fmt.Errorf("%w: record %d is not an object", core.ErrImportFormat, i)
			}
			res.Dropped = append(res.Dropped, i)
			continue
		}
		p := fromRecord(obj)

		switch g.policy {
		case PolicyPermissive:
		case PolicyStrict:
			if err := p.Validate(); err != nil {
				return nil, Result{}, fmt.Errorf("%w: record %d: %w", core.ErrImportFormat, i, err)
			}
			if seen[p.ID] {
				return nil, Result{}, fmt.Errorf("%w: record %d: duplicate id %s", core.ErrImportFormat, i, p.ID)
			}
		default:
			if p.Name == "" || p.Image == "" {
				res.Dropped = append(res.Dropped, i)
				continue
			}
			if g.repair(&p, obj, seen) {
				res.Repaired++
			}
		}

		seen[p.ID] = true
		products = append(products, p)
	}
	res.Imported = len(products)
	return products, res, nil
}

func (g *Gateway) repair(p *core.Product, obj map[string]any, seen map[string]bool) bool {
	repaired := false
	if p.ID == "" || seen[p.ID] {
		p.ID = g.newID()
		repaired = true
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = g.now().UnixMilli()
		repaired = true
	}
	if _, ok := obj["price"]; !ok {
		repaired = true
	}
	if _, ok := obj["notes"]; !ok {
		repaired = true
	}
	return repaired
}

// fromRecord coerces one decoded JSON object into a Product. Exports made by
// older versions stored the image under "image_base64".
func fromRecord(obj map[string]any) core.Product {
	image := cast.ToString(obj["image"])
	if image == "" {
		image = cast.ToString(obj["image_base64"])
	}
	return core.Product{
		ID:        cast.ToString(obj["id"]),
		Name:      strings.TrimSpace(cast.ToString(obj["name"])),
		Price:     core.ParseAmount(obj["price"]),
		Notes:     cast.ToString(obj["notes"]),
		Image:     image,
		CreatedAt: core.ParseAmount(obj["created_at"]),
	}
}
