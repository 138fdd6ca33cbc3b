package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the caller's personal accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// RegisterAccountRoutes registers routes related to accounts.
func RegisterAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	registerValidators()
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts/:accountID")
	{
		accounts.GET("", h.getAccount)
		accounts.GET("/entries", h.listAccountEntries)
		accounts.POST("/repay", h.repayCreditCard)
	}
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Retrieves one of the caller's accounts. Accounts of other members are reported as not found.
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve account"
// @Security BearerAuth
// @Router /accounts/{accountID} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	logger = logger.With(slog.String("target_account_id", accountID))
	logger.Info("Received request to get account")

	account, err := h.accountService.GetAccount(c.Request.Context(), accountID, actorID)
	if err != nil {
		respondError(c, err, "retrieve account")
		return
	}

	logger.Info("Account retrieved successfully")
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccountEntries godoc
// @Summary List account entries
// @Description Lists the audit trail of one of the caller's accounts, oldest first, with token-based pagination.
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListAccountEntriesResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to list account entries"
// @Security BearerAuth
// @Router /accounts/{accountID}/entries [get]
func (h *accountHandler) listAccountEntries(c *gin.Context) {
	var params dto.ListAccountEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err, "query parameters")
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	resp, err := h.accountService.ListAccountEntries(c.Request.Context(), c.Param("accountID"), actorID, params)
	if err != nil {
		respondError(c, err, "list account entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// repayCreditCard godoc
// @Summary Repay a credit card
// @Description Pays down a card from a cash or bank account. Without an amount the full outstanding balance is paid; larger amounts are capped.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Credit card account ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   repayment body dto.RepayCreditCardRequest true "Repayment details"
// @Success 200 {object} dto.CardRepaymentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to repay credit card"
// @Security BearerAuth
// @Router /accounts/{accountID}/repay [post]
func (h *accountHandler) repayCreditCard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	cardID := c.Param("accountID")

	var req dto.RepayCreditCardRequest
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

	logger = logger.With(slog.String("card_account_id", cardID), slog.String("source_account_id", req.SourceAccountID))
	logger.Info("Received request to repay credit card")

	repayment, err := h.accountService.RepayCreditCard(c.Request.Context(), cardID, actorID, req)
	if err != nil {
		respondError(c, err, "repay credit card")
		return
	}

	logger.Info("Credit card repaid", slog.String("amount", repayment.Amount.String()))
	c.JSON(http.StatusOK, dto.ToCardRepaymentResponse(repayment))
}
