package market

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kelechi-dev/workbid/internal/errs"
)

// Handler exposes the board over HTTP. The authenticated caller identity is
// threaded in by the JWT middleware.
type Handler struct {
	board *Board
}

func NewHandler(board *Board) *Handler {
	return &Handler{board: board}
}

type createJobRequest struct {
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	MaxBidValue int64     `json:"max_bid_value"`
}

// CreateJob - POST /jobs
func (h *Handler) CreateJob(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(createJobRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	id, err := h.board.CreateJob(c.Request().Context(), uid, req.Description, req.Deadline, req.MaxBidValue)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"job_id": id})
}

// GetJob - GET /jobs/:id
func (h *Handler) GetJob(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	job, err := h.board.GetJobByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, job)
}

// ListJobs - GET /jobs (public discovery)
func (h *Handler) ListJobs(c echo.Context) error {
	list, err := h.board.ListAllJobs(c.Request().Context())
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, list)
}

// MyJobs - GET /jobs/mine
func (h *Handler) MyJobs(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	jobs, err := h.board.JobsByOwner(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, jobs)
}

type placeBidRequest struct {
	Price   int64  `json:"price"`
	Details string `json:"details"`
}

// PlaceBid - POST /jobs/:id/bids
func (h *Handler) PlaceBid(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	req := new(placeBidRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.board.PlaceBid(c.Request().Context(), uid, jobID, req.Price, req.Details); err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "bid placed"})
}

// GetBids - GET /jobs/:id/bids
func (h *Handler) GetBids(c echo.Context) error {
	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	bids, err := h.board.GetBids(c.Request().Context(), jobID)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, bids)
}

type acceptBidRequest struct {
	Provider        string `json:"provider"`
	AttachedPayment int64  `json:"attached_payment"`
}

// AcceptBid - POST /jobs/:id/accept
func (h *Handler) AcceptBid(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	req := new(acceptBidRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.board.AcceptBid(c.Request().Context(), uid, jobID, req.Provider, req.AttachedPayment); err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "bid accepted", "job_id": jobID, "provider": req.Provider})
}
