package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/repository"
)

type offeringCatalog interface {
	GetByID(ctx context.Context, id string) (model.Offering, error)
	List(ctx context.Context, category string) ([]model.Offering, error)
}

// OfferingHandler serves the public internship/course catalog. These routes
// sit behind the redis response cache since the catalog changes rarely.
type OfferingHandler struct {
	Offerings offeringCatalog
}

type offeringPart struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"` // rupees, as the UI displays it
}

func toOfferingPart(o model.Offering) offeringPart {
	return offeringPart{
		ID:          o.ID,
		Title:       o.Title,
		Category:    o.Category,
		Description: o.Description,
		Price:       float64(o.PricePaise) / 100,
	}
}

// List returns active offerings, optionally filtered by ?category=.
func (h *OfferingHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Offerings.List(ctx, c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]offeringPart, 0, len(list))
	for _, o := range list {
		out = append(out, toOfferingPart(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"offerings": out})
}

// Get returns a single active offering by id.
func (h *OfferingHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Offerings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrOfferingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !o.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
	}
	return c.JSON(http.StatusOK, toOfferingPart(o))
}
