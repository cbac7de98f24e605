package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/spec-kit/lead-service/internal/api/dto"
	"github.com/spec-kit/lead-service/internal/auth"
	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/export"
	"github.com/spec-kit/lead-service/internal/service"
	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

// LeadsHandler exposes lead submission, administration and export.
type LeadsHandler struct {
	leads    *service.LeadService
	exporter *export.Exporter
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leadService *service.LeadService, exporter *export.Exporter) *LeadsHandler {
	return &LeadsHandler{leads: leadService, exporter: exporter}
}

// Create handles the public POST /leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	var req dto.LeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	lead, err := h.leads.Create(c.UserContext(), service.LeadInput{
		Name:        lo.FromPtr(req.Name),
		Email:       lo.FromPtr(req.Email),
		Telephone:   lo.FromPtr(req.Telephone),
		Position:    lo.FromPtr(req.Position),
		Message:     lo.FromPtr(req.Message),
		DateBirth:   lo.FromPtr(req.DateBirth),
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		GCLID:       req.GCLID,
		FBCLID:      req.FBCLID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewLeadResponse(lead))
}

// List handles GET /leads?page=&pageSize=.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	page, err := h.leads.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("pageSize", 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.LeadListResponse{
		Leads: lo.Map(page.Leads, func(l domain.Lead, _ int) dto.LeadResponse {
			return dto.NewLeadResponse(&l)
		}),
		TotalPages: page.TotalPages,
	})
}

// Get handles GET /leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	lead, err := h.leads.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLeadResponse(lead))
}

// Update handles PATCH /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	var req dto.LeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	lead, err := h.leads.Update(c.UserContext(), c.Params("id"), service.LeadPatch{
		Name:        req.Name,
		Email:       req.Email,
		Telephone:   req.Telephone,
		Position:    req.Position,
		Message:     req.Message,
		DateBirth:   req.DateBirth,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		GCLID:       req.GCLID,
		FBCLID:      req.FBCLID,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLeadResponse(lead))
}

// Delete handles DELETE /leads/:id.
func (h *LeadsHandler) Delete(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c.UserContext())
	if err := h.leads.Delete(c.UserContext(), identity.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Export handles GET /leads/export. The status and headers are committed
// before the first batch is fetched; a failure after that point aborts the
// chunked body instead of producing an error response.
func (h *LeadsHandler) Export(c *fiber.Ctx) error {
	c.Status(http.StatusOK)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="leads.csv"`)

	// the stream outlives this handler and the request timeout
	ctx := context.WithoutCancel(c.UserContext())
	return c.SendStream(h.exporter.Pipe(ctx))
}
