package consultation

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

var ErrServiceNotFound = errors.New("service not found")

// CatalogService is a billable service from the reference catalog.
type CatalogService struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Price int64     `db:"price" json:"price"`
}

// CatalogRepository reads the static service catalog.
type CatalogRepository interface {
	List(ctx context.Context) ([]CatalogService, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogService, error)
}

type catalogPG struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) CatalogRepository {
	return &catalogPG{pool: pool}
}

func (r *catalogPG) List(ctx context.Context) ([]CatalogService, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price FROM services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []CatalogService
	for rows.Next() {
		var s CatalogService
		if err := rows.Scan(&s.ID, &s.Name, &s.Price); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *catalogPG) GetByID(ctx context.Context, id uuid.UUID) (*CatalogService, error) {
	var s CatalogService
	err := r.pool.QueryRow(ctx, `SELECT id, name, price FROM services WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type CatalogHandler struct {
	repo CatalogRepository
}

func NewCatalogHandler(repo CatalogRepository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/services", h.ListServices, auth.RequireRole("physician", "registrar"))
}

func (h *CatalogHandler) ListServices(c echo.Context) error {
	services, err := h.repo.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if services == nil {
		services = []CatalogService{}
	}
	return c.JSON(http.StatusOK, services)
}
