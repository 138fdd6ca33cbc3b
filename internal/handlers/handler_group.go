package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// groupHandler serves the group-scoped ledger commands and read models.
type groupHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

func newGroupHandler(ss portssvc.SettlementSvcFacade) *groupHandler {
	return &groupHandler{settlementService: ss}
}

// RegisterGroupRoutes registers routes under /groups/:groupID.
func RegisterGroupRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	registerValidators()
	h := newGroupHandler(settlementService)

	groups := rg.Group("/groups/:groupID")
	{
		groups.POST("/expenses", h.createExpense)
		groups.POST("/repayments", h.repay)
		groups.POST("/settle-all", h.settleAll)
		groups.GET("/balances", h.getBalances)
		groups.GET("/transfers", h.getSuggestedTransfers)
		groups.GET("/events", h.listEvents)
		groups.GET("/splits", h.listSplits)
		groups.GET("/summary", h.getPeriodSummary)
	}
}

// createExpense godoc
// @Summary Record a shared expense
// @Description Appends an Expense event and creates its split. An Idempotency-Key header (or body field) makes retries safe.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Payment account not owned by the payer"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 409 {object} dto.ErrorResponse "Idempotency key used for a different command"
// @Failure 422 {object} dto.ErrorResponse "Insufficient credit"
// @Failure 500 {object} dto.ErrorResponse "Failed to create expense"
// @Security BearerAuth
// @Router /groups/{groupID}/expenses [post]
func (h *groupHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	groupID := c.Param("groupID")

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "expense request")
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if req.IdempotencyKey, ok = idempotencyKey(c, req.IdempotencyKey); !ok {
		return
	}

	logger = logger.With(slog.String("group_id", groupID))
	logger.Info("Received request to create expense", slog.String("payer", req.Payer), slog.Int("participants", len(req.Participants)))

	rec, err := h.settlementService.CreateExpense(c.Request.Context(), groupID, actorID, req)
	if err != nil {
		respondError(c, err, "create expense")
		return
	}

	logger.Info("Expense created successfully", slog.String("event_id", rec.Event.EventID))
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(rec))
}

// repay godoc
// @Summary Record a repayment
// @Description Appends a Repayment event moving money from one member to another. Splits are not marked paid.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   repayment body dto.RepayRequest true "Repayment details"
// @Success 201 {object} dto.EventResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Account not owned by the paying or receiving member"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 409 {object} dto.ErrorResponse "Idempotency key used for a different command"
// @Failure 422 {object} dto.ErrorResponse "Insufficient credit"
// @Failure 500 {object} dto.ErrorResponse "Failed to record repayment"
// @Security BearerAuth
// @Router /groups/{groupID}/repayments [post]
func (h *groupHandler) repay(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	groupID := c.Param("groupID")

	var req dto.RepayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "repayment request")
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if req.IdempotencyKey, ok = idempotencyKey(c, req.IdempotencyKey); !ok {
		return
	}

	logger = logger.With(slog.String("group_id", groupID))
	logger.Info("Received request to record repayment", slog.String("from", req.From), slog.String("to", req.To))

	event, err := h.settlementService.Repay(c.Request.Context(), groupID, actorID, req)
	if err != nil {
		respondError(c, err, "record repayment")
		return
	}

	logger.Info("Repayment recorded successfully", slog.String("event_id", event.EventID))
	c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

// settleAll godoc
// @Summary Reset all balances of a group
// @Description Appends a settlement marker. Balances are folded from the latest marker onwards.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 201 {object} dto.EventResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to settle group"
// @Security BearerAuth
// @Router /groups/{groupID}/settle-all [post]
func (h *groupHandler) settleAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	groupID := c.Param("groupID")
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	marker, err := h.settlementService.SettleAll(c.Request.Context(), groupID, actorID)
	if err != nil {
		respondError(c, err, "settle group")
		return
	}

	logger.Info("Group balances reset", slog.String("group_id", groupID), slog.Int64("seq", marker.Seq))
	c.JSON(http.StatusCreated, dto.ToEventResponse(marker))
}

// getBalances godoc
// @Summary Get net balances
// @Description Replays the group's events since the latest settlement marker. Positive means owed money.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.BalancesResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to compute balances"
// @Security BearerAuth
// @Router /groups/{groupID}/balances [get]
func (h *groupHandler) getBalances(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	balances, err := h.settlementService.GetBalances(c.Request.Context(), c.Param("groupID"), actorID)
	if err != nil {
		respondError(c, err, "compute balances")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalancesResponse(balances))
}

// getSuggestedTransfers godoc
// @Summary Get suggested transfers
// @Description Computes a small set of payments that settles every balance.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.TransfersResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to compute transfers"
// @Security BearerAuth
// @Router /groups/{groupID}/transfers [get]
func (h *groupHandler) getSuggestedTransfers(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	plan, err := h.settlementService.GetSuggestedTransfers(c.Request.Context(), c.Param("groupID"), actorID)
	if err != nil {
		respondError(c, err, "compute transfers")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransfersResponse(plan))
}

// listEvents godoc
// @Summary List ledger events
// @Description Lists a group's events in replay order with token-based pagination.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEventsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to list events"
// @Security BearerAuth
// @Router /groups/{groupID}/events [get]
func (h *groupHandler) listEvents(c *gin.Context) {
	var params dto.ListEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err, "query parameters")
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.settlementService.ListEvents(c.Request.Context(), c.Param("groupID"), actorID, params)
	if err != nil {
		respondError(c, err, "list events")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listSplits godoc
// @Summary List splits
// @Description Lists a group's splits, newest first.
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   offset query int false "Offset for pagination" default(0)
// @Success 200 {array} dto.SplitResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to list splits"
// @Security BearerAuth
// @Router /groups/{groupID}/splits [get]
func (h *groupHandler) listSplits(c *gin.Context) {
	var params dto.ListSplitsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err, "query parameters")
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	splits, err := h.settlementService.ListSplits(c.Request.Context(), c.Param("groupID"), actorID, params)
	if err != nil {
		respondError(c, err, "list splits")
		return
	}
	c.JSON(http.StatusOK, dto.ToListSplitResponse(splits))
}

// getPeriodSummary godoc
// @Summary Monthly summary
// @Description Per-member totals paid and owed from expenses dated in the given calendar month (UTC).
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   year query int true "Year"
// @Param   month query int true "Month (1-12)"
// @Success 200 {object} domain.PeriodSummary
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to summarize period"
// @Security BearerAuth
// @Router /groups/{groupID}/summary [get]
func (h *groupHandler) getPeriodSummary(c *gin.Context) {
	var params dto.PeriodSummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err, "query parameters")
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.settlementService.GetPeriodSummary(c.Request.Context(), c.Param("groupID"), actorID, params)
	if err != nil {
		respondError(c, err, "summarize period")
		return
	}
	c.JSON(http.StatusOK, summary)
}
