package hr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/internal/controller"
)

// TestReports godoc
// @Summary (HR) Per-test report summary
// @Tags HR - Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestReport
// @Router /hr/test-reports [get]
func (c *HRController) TestReports(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.reportService.TestReportSummary(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// TestResults godoc
// @Summary (HR) Candidate results for one test
// @Description Union of assigned candidates and candidates who attempted the test, with a summary block.
// @Tags HR - Reports
// @Produce json
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Success 200 {object} dto.TestResultsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /hr/test-results/{testId} [get]
func (c *HRController) TestResults(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "testId", "Test")
	if !ok {
		return
	}
	resp, err := c.reportService.TestResultsDetail(ctx.Request.Context(), claims.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// MonitorSessions godoc
// @Summary (HR) Live session monitor
// @Tags HR - Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.MonitorSession
// @Router /hr/monitor-sessions [get]
func (c *HRController) MonitorSessions(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.reportService.MonitorSessions(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Attempts godoc
// @Summary (HR) Attempts on own tests
// @Tags HR - Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.HRAttemptResponse
// @Router /hr/attempts [get]
func (c *HRController) Attempts(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.attemptService.ListForHR(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
