package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"goods-manager/backup"
	"goods-manager/catalog"
	"goods-manager/core"
	"goods-manager/stores/memory"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func seededGateway(t *testing.T, products ...core.Product) (*backup.Gateway, *catalog.Store) {
	t.Helper()
	store := catalog.NewStore(memory.NewStore(), "")
	if len(products) > 0 {
		if err := store.ReplaceAll(context.Background(), products); err != nil {
			t.Fatalf("ReplaceAll() failed: %v", err)
		}
	}
	return backup.NewGateway(store, backup.PolicyRepair), store
}

var sample = []core.Product{
	{ID: "1", Name: "Táo", Price: 100, Image: "data:image/jpeg;base64,AA==", CreatedAt: 1},
	{ID: "2", Name: "Lê", Price: 200, Image: "data:image/jpeg;base64,AA==", CreatedAt: 2},
}

func TestHandleExport(t *testing.T) {
	gw, _ := seededGateway(t, sample...)
	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rr := httptest.NewRecorder()
	HandleExport(gw).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	cd := rr.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="goods-manager-backup-`) || !strings.HasSuffix(cd, `.json"`) {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	var got []core.Product
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("export is not a product array: %v", err)
	}
	if len(got) != 2 || got[0] != sample[0] || got[1] != sample[1] {
		t.Errorf("exported %+v, want %+v", got, sample)
	}
}

func TestHandleExport_Empty(t *testing.T) {
	gw, _ := seededGateway(t)
	rr := httptest.NewRecorder()
	HandleExport(gw).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestHandleImport_RequiresConfirmation(t *testing.T) {
	data, _ := json.Marshal(sample)
	for _, target := range []string{"/import", "/import?confirm=1", "/import?confirm=yes"} {
		gw, store := seededGateway(t)
		rr := httptest.NewRecorder()
		HandleImport(gw, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data)))

		if rr.Code != http.StatusConflict {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusConflict, rr.Code)
		}
		var body struct {
			Incoming int `json:"incoming"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Incoming != 2 {
			t.Errorf("%s: 409 body should carry the count, got %s", target, rr.Body.String())
		}
		if got := store.Load(context.Background()); len(got) != 0 {
			t.Errorf("%s: unconfirmed import changed the catalog", target)
		}
	}
}

func TestHandleImport_Confirmed(t *testing.T) {
	data, _ := json.Marshal(sample)
	gw, store := seededGateway(t, core.Product{ID: "old", Name: "Cũ", Image: "x"})
	rr := httptest.NewRecorder()
	HandleImport(gw, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/import?confirm=2", bytes.NewReader(data)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var res backup.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad result body: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("imported = %d, want 2", res.Imported)
	}
	got := store.Load(context.Background())
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("catalog after import = %+v", got)
	}
}

func TestHandleImport_NotAnArray(t *testing.T) {
	gw, store := seededGateway(t, sample...)
	rr := httptest.NewRecorder()
	HandleImport(gw, 1<<20).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/import?confirm=1", strings.NewReader(`{"a":1}`)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if got := store.Load(context.Background()); len(got) != 2 {
		t.Errorf("rejected import changed the catalog: %+v", got)
	}
}

func TestHandleImport_TooLarge(t *testing.T) {
	gw, _ := seededGateway(t)
	rr := httptest.NewRecorder()
	body := strings.NewReader("[" + strings.Repeat(" ", 2048) + "]")
	HandleImport(gw, 1024).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/import?confirm=0", body))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}
