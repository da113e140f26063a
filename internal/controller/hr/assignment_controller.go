package hr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/internal/controller"
	"github.com/lshigami/Assessa/internal/dto"
)

// AssignTest godoc
// @Summary (HR) Invite candidates to a test
// @Description Creates one assignment per new email and mails the access link. Invalid, duplicate and already-assigned emails are reported as skipped.
// @Tags HR - Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.InviteRequest true "Test and candidate emails"
// @Success 201 {object} dto.InviteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /hr/assign-test [post]
func (c *HRController) AssignTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	var req dto.InviteRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.assignmentService.InviteCandidates(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// TestAssignments godoc
// @Summary (HR) Assignments of one test
// @Tags HR - Assignments
// @Produce json
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Success 200 {array} dto.AssignmentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /hr/test-assignments/{testId} [get]
func (c *HRController) TestAssignments(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "testId", "Test")
	if !ok {
		return
	}
	resp, err := c.assignmentService.ListTestAssignments(ctx.Request.Context(), claims.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GroupedAssignments godoc
// @Summary (HR) Assignments grouped by status
// @Tags HR - Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.GroupedAssignmentsResponse
// @Router /hr/assignments/grouped-by-status [get]
func (c *HRController) GroupedAssignments(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.assignmentService.GroupByStatusForHR(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
