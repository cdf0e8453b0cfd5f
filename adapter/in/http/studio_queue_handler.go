package http

import (
	"strings"

	"studio_server/core/domain"
	"studio_server/core/port/in"
	"studio_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// QueueHandler handles generation queue HTTP requests.
type QueueHandler struct {
	queue in.QueueService
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(queue in.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Register registers queue routes.
func (h *QueueHandler) Register(router fiber.Router) {
	queue := router.Group("/generations")

	queue.Post("/", h.Enqueue)
	queue.Post("/batch", h.EnqueueBatch)
	queue.Get("/", h.ListItems)
	queue.Get("/counts", h.Counts)
	queue.Get("/:id", h.GetItem)
	queue.Post("/:id/cancel", h.Cancel)
	queue.Post("/:id/retry", h.Retry)

	batches := router.Group("/generation-batches")
	batches.Get("/:id", h.GetBatch)
}

type enqueueRequest struct {
	Request  *domain.GenerationRequest `json:"request"`
	Priority string                    `json:"priority,omitempty"`
}

// Enqueue submits a single generation job.
// POST /api/v1/generations
func (h *QueueHandler) Enqueue(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req enqueueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	item, err := h.queue.Enqueue(c.Context(), userID, req.Request, domain.ParsePriority(req.Priority))
	if err != nil {
		return respondError(c, err)
	}
	return response.Accepted(c, item)
}

// EnqueueBatch submits several generation jobs as one batch.
// POST /api/v1/generations/batch
func (h *QueueHandler) EnqueueBatch(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req in.BatchGenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.queue.EnqueueBatch(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return response.Accepted(c, result)
}

// ListItems lists the user's queue items, newest first.
// GET /api/v1/generations?status=queued,processing
func (h *QueueHandler) ListItems(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var statuses []domain.GenerationStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.GenerationStatus(strings.TrimSpace(s)))
		}
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	result, err := h.queue.ListItems(c.Context(), userID, statuses, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return response.OKWithMeta(c, result.Items, &response.Meta{
		Total:   result.Total,
		HasMore: offset+len(result.Items) < result.Total,
	})
}

// Counts returns per-status item counts for the user.
// GET /api/v1/generations/counts
func (h *QueueHandler) Counts(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	counts, err := h.queue.Counts(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, counts)
}

// GetItem returns a single queue item.
// GET /api/v1/generations/:id
func (h *QueueHandler) GetItem(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	item, err := h.queue.GetItem(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, item)
}

// Cancel cancels a non-terminal queue item. A late backend result for a
// cancelled item is discarded.
// POST /api/v1/generations/:id/cancel
func (h *QueueHandler) Cancel(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	item, err := h.queue.Cancel(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, item)
}

// Retry requeues a failed item with a retryable error.
// POST /api/v1/generations/:id/retry
func (h *QueueHandler) Retry(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	item, err := h.queue.Retry(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, item)
}

// GetBatch returns a batch's aggregate progress.
// GET /api/v1/generation-batches/:id
func (h *QueueHandler) GetBatch(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	batch, err := h.queue.GetBatch(c.Context(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.OK(c, batch)
}
