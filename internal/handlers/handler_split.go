package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type splitHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

// RegisterSplitRoutes registers routes under /splits/:splitID.
func RegisterSplitRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	h := &splitHandler{settlementService: settlementService}

	splits := rg.Group("/splits/:splitID")
	{
		splits.GET("", h.getSplit)
		splits.POST("/participants/:memberID/paid", h.markParticipantPaid)
		splits.POST("/settle", h.settle)
	}
}

// getSplit godoc
// @Summary Get a split
// @Description Retrieves a split with its participant lines.
// @Tags splits
// @Produce  json
// @Param   splitID path string true "Split ID"
// @Success 200 {object} dto.SplitResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Split not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve split"
// @Security BearerAuth
// @Router /splits/{splitID} [get]
func (h *splitHandler) getSplit(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	split, err := h.settlementService.GetSplit(c.Request.Context(), c.Param("splitID"), actorID)
	if err != nil {
		respondError(c, err, "retrieve split")
		return
	}
	c.JSON(http.StatusOK, dto.ToSplitResponse(split))
}

// markParticipantPaid godoc
// @Summary Mark a participant paid
// @Description Flips one participant line to paid. The split settles when the last line is paid. Re-marking is a no-op.
// @Tags splits
// @Produce  json
// @Param   splitID path string true "Split ID"
// @Param   memberID path string true "Participant member ID"
// @Success 200 {object} dto.SplitResponse
// @Failure 400 {object} dto.ErrorResponse "Member is not a participant"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Only the participant or the payer may mark"
// @Failure 404 {object} dto.ErrorResponse "Split not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to mark participant paid"
// @Security BearerAuth
// @Router /splits/{splitID}/participants/{memberID}/paid [post]
func (h *splitHandler) markParticipantPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	splitID := c.Param("splitID")
	participantID := c.Param("memberID")
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	split, err := h.settlementService.MarkParticipantPaid(c.Request.Context(), splitID, participantID, actorID)
	if err != nil {
		respondError(c, err, "mark participant paid")
		return
	}

	logger.Info("Participant marked paid", slog.String("split_id", splitID), slog.String("participant_id", participantID), slog.Bool("settled", split.IsSettled))
	c.JSON(http.StatusOK, dto.ToSplitResponse(split))
}

// settle godoc
// @Summary Settle a split
// @Description Settles a split whose participants have all paid. Only the payer may settle.
// @Tags splits
// @Produce  json
// @Param   splitID path string true "Split ID"
// @Success 200 {object} dto.SplitResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Only the payer may settle"
// @Failure 404 {object} dto.ErrorResponse "Split not found"
// @Failure 409 {object} dto.ErrorResponse "Split already settled"
// @Failure 422 {object} dto.ErrorResponse "Participants still unpaid"
// @Failure 500 {object} dto.ErrorResponse "Failed to settle split"
// @Security BearerAuth
// @Router /splits/{splitID}/settle [post]
func (h *splitHandler) settle(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	split, err := h.settlementService.Settle(c.Request.Context(), c.Param("splitID"), actorID)
	if err != nil {
		respondError(c, err, "settle split")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Split settled", slog.String("split_id", split.SplitID))
	c.JSON(http.StatusOK, dto.ToSplitResponse(split))
}
