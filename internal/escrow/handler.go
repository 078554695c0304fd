package escrow

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/market"
)

// Handler exposes the escrow ledger over HTTP. The ledger itself is linked
// to the job board only through ids; this boundary resolves accepted-bid
// prices so deposits and agreements are never priced by caller-supplied
// amounts.
type Handler struct {
	ledger *Ledger
	board  *market.Board
	rateBP int64
}

func NewHandler(ledger *Ledger, board *market.Board, commissionRateBP int64) *Handler {
	return &Handler{ledger: ledger, board: board, rateBP: commissionRateBP}
}

type createAgreementRequest struct {
	JobID int64 `json:"job_id"`
}

// CreateAgreement - POST /agreements. Amounts derive from the accepted bid:
// net is the bid price, gross adds the platform commission.
func (h *Handler) CreateAgreement(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(createAgreementRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	job, err := h.board.GetJobByID(ctx, req.JobID)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	if job.ClientAddress != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the job owner can open an agreement"})
	}

	price, err := h.board.AcceptedBidPrice(ctx, req.JobID)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}

	id, err := h.ledger.NewAgreement(ctx, job.ClientAddress, job.SelectedServiceProvider, GrossUp(price, h.rateBP), price)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"agreement_id": id})
}

type depositRequest struct {
	ReferenceJobID  int64 `json:"reference_job_id"`
	AttachedPayment int64 `json:"attached_payment"`
}

// Deposit - POST /agreements/:id/deposit. The expected amount comes from
// the referenced accepted bid, grossed up with the commission.
func (h *Handler) Deposit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agreement id"})
	}

	req := new(depositRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	price, err := h.board.AcceptedBidPrice(ctx, req.ReferenceJobID)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}

	if err := h.ledger.DepositFunds(ctx, id, GrossUp(price, h.rateBP), req.AttachedPayment); err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "funds deposited", "agreement_id": id})
}

// Release - POST /agreements/:id/release
func (h *Handler) Release(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agreement id"})
	}

	if err := h.ledger.ReleaseFunds(c.Request().Context(), id); err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "funds released", "agreement_id": id})
}

// Withdraw - POST /agreements/:id/withdraw
func (h *Handler) Withdraw(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agreement id"})
	}

	amount, err := h.ledger.Withdraw(c.Request().Context(), id)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "funds withdrawn", "amount": amount})
}

// GetAgreement - GET /agreements/:id
func (h *Handler) GetAgreement(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agreement id"})
	}

	a, err := h.ledger.AgreementByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, a)
}

// GetDeposits - GET /agreements/:id/deposits
func (h *Handler) GetDeposits(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agreement id"})
	}

	amount, err := h.ledger.DepositedFunds(c.Request().Context(), id)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"agreement_id": id, "deposited": amount})
}

// MyBalance - GET /balance
func (h *Handler) MyBalance(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	balance, err := h.ledger.WithdrawableBalance(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": uid, "withdrawable": balance})
}

// Commission - GET /platform/commission
func (h *Handler) Commission(c echo.Context) error {
	total, err := h.ledger.PlatformCommission(c.Request().Context())
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"platform_commission": total})
}
