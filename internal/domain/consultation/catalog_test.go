package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type mockCatalog struct {
	services []CatalogService
	err      error
}

func (m *mockCatalog) List(context.Context) ([]CatalogService, error) {
	return m.services, m.err
}

func (m *mockCatalog) GetByID(_ context.Context, id uuid.UUID) (*CatalogService, error) {
	for _, s := range m.services {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, ErrServiceNotFound
}

func TestListServices(t *testing.T) {
	catalog := &mockCatalog{services: []CatalogService{
		{ID: uuid.New(), Name: "Khám tổng quát", Price: 150000},
		{ID: uuid.New(), Name: "Xét nghiệm máu", Price: 250000},
	}}
	h := NewCatalogHandler(catalog)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListServices(c); err != nil {
		t.Fatalf("ListServices() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []CatalogService
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Khám tổng quát" {
		t.Errorf("services = %+v", got)
	}
}

func TestListServicesEmpty(t *testing.T) {
	h := NewCatalogHandler(&mockCatalog{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListServices(c); err != nil {
		t.Fatalf("ListServices() error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestListServicesRepoError(t *testing.T) {
	h := NewCatalogHandler(&mockCatalog{err: errors.New("db down")})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListServices(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 HTTPError", err)
	}
}
