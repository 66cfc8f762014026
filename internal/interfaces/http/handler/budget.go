package handler

import (
	"github.com/gin-gonic/gin"

	"z-script-ai-api/internal/application/budget"
	"z-script-ai-api/internal/interfaces/http/dto"
	"z-script-ai-api/pkg/logger"
)

// BudgetHandler 预算处理器
type BudgetHandler struct {
	ledger *budget.Ledger
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler(ledger *budget.Ledger) *BudgetHandler {
	return &BudgetHandler{ledger: ledger}
}

// GetStatus 当前日/月消费
// @Summary 预算状态
// @Tags Budget
// @Produce json
// @Success 200 {object} dto.Response[budget.Status]
// @Router /v1/budget [get]
func (h *BudgetHandler) GetStatus(c *gin.Context) {
	dto.Success(c, h.ledger.Status())
}

// ResetMonthly 月初清零，由外部调度触发
// @Summary 月度预算重置
// @Tags Budget
// @Produce json
// @Success 200 {object} dto.Response[budget.Status]
// @Router /v1/budget/monthly-reset [post]
func (h *BudgetHandler) ResetMonthly(c *gin.Context) {
	h.ledger.ResetMonthly()
	logger.Info(c.Request.Context(), "monthly budget reset")
	dto.Success(c, h.ledger.Status())
}
