package handlers

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/api/dto"
	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/internal/service"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

// TicketsHandler manages the ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create handles POST /tickets. The body is a multipart form with
// subject, description, category_id, priority fields and zero or more
// files under "attachments".
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Subject:     c.FormValue("subject"),
		Description: c.FormValue("description"),
		CategoryID:  c.FormValue("category_id"),
		Priority:    domain.TicketPriority(c.FormValue("priority")),
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		var opened []multipart.File
		defer func() {
			for _, file := range opened {
				_ = file.Close()
			}
		}()
		for _, header := range form.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				return errorutil.NewValidationError("unreadable upload", map[string]any{"filename": header.Filename})
			}
			opened = append(opened, file)
			input.Attachments = append(input.Attachments, service.AttachmentInput{
				Filename:    header.Filename,
				ContentType: header.Header.Get(fiber.HeaderContentType),
				Size:        header.Size,
				Content:     file,
			})
		}
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListTickets(c.UserContext(), actor, parseTicketListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPageResponse(page, dto.NewTicketSummary)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	detail, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail.Ticket, detail.Comments, detail.Attachments, detail.ViewerVote)})
}

// Update handles PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddComment handles POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// SetStatus handles PATCH /tickets/:id/status.
func (h *TicketsHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.SetStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Assign handles PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.AssignTicket(c.UserContext(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Vote handles POST /tickets/:id/vote.
func (h *TicketsHandler) Vote(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	upvotes, downvotes, err := h.service.VoteTicket(c.UserContext(), actor, c.Params("id"), req.Direction)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VoteResponse{Upvotes: upvotes, Downvotes: downvotes}})
}

// DownloadAttachment handles GET /tickets/:id/attachments/:attachmentId.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	att, reader, err := h.service.OpenAttachment(c.UserContext(), actor, c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(att.OriginalFilename))
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.OriginalFilename))
	// fasthttp closes the stream after the response is written
	return c.SendStream(reader, int(att.SizeBytes))
}

func parseTicketListQuery(c *fiber.Ctx) service.TicketListQuery {
	query := service.TicketListQuery{
		Sort: repository.TicketSort(c.Query("sort")),
		Page: parseInt(c.Query("page"), 1),
	}
	if status := c.Query("status"); status != "" {
		parsed := domain.TicketStatus(status)
		query.Status = &parsed
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		query.CategoryID = &categoryID
	}
	if search := c.Query("search"); search != "" {
		query.Search = &search
	}
	return query
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// requireActor pulls the authenticated principal set by the auth
// middleware.
func requireActor(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, errorutil.NewUnauthorized("authentication required")
	}
	return service.Actor{ID: principal.ID, Username: principal.Username, Role: principal.Role}, nil
}
