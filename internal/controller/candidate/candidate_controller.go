package candidate

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/controller"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/service"
)

// CandidateController serves the /tests routes used while taking tests.
type CandidateController struct {
	testService       service.TestService
	assignmentService service.AssignmentService
	attemptService    service.AttemptService
}

func NewCandidateController(
	testService service.TestService,
	assignmentService service.AssignmentService,
	attemptService service.AttemptService,
) *CandidateController {
	return &CandidateController{
		testService:       testService,
		assignmentService: assignmentService,
		attemptService:    attemptService,
	}
}

// AvailableTests godoc
// @Summary Tests the candidate can take now
// @Description Published tests plus tests the candidate was invited to, minus those already attempted.
// @Tags Candidate - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryResponse
// @Router /tests/available [get]
func (c *CandidateController) AvailableTests(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.testService.GetAvailableTests(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DashboardTests godoc
// @Summary Dashboard listing
// @Description Published and invited tests, each flagged with whether the candidate already attempted it.
// @Tags Candidate - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryResponse
// @Router /tests/published [get]
func (c *CandidateController) DashboardTests(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.testService.GetDashboardTests(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetTest godoc
// @Summary Get a test
// @Description Owners see correct answers. Everyone else gets the candidate view of a test they can access.
// @Tags Candidate - Tests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Test ID"
// @Success 200 {object} dto.TestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tests/{id} [get]
func (c *CandidateController) GetTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "id", "Test")
	if !ok {
		return
	}
	resp, err := c.testService.GetTestByID(ctx.Request.Context(), *claims, testID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartTest godoc
// @Summary Start or resume a test
// @Description Moves the assignment to active. Starting a published test without an invitation creates a self-serve assignment (201).
// @Tags Candidate - Attempts
// @Produce json
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Success 200 {object} dto.StartTestResponse "Started or resumed"
// @Success 201 {object} dto.StartTestResponse "Self-serve assignment created"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Router /tests/{testId}/start [post]
func (c *CandidateController) StartTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "id", "Test")
	if !ok {
		return
	}
	resp, created, err := c.assignmentService.StartOrResume(ctx.Request.Context(), *claims, testID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, resp)
}

// SubmitTest godoc
// @Summary Submit answers
// @Description Scores the answers on the server and stores the single attempt allowed per candidate and test.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Param submission body dto.SubmitAttemptRequest true "Answers"
// @Success 201 {object} dto.AttemptResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Router /tests/{testId}/submit [post]
func (c *CandidateController) SubmitTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "id", "Test")
	if !ok {
		return
	}
	var req dto.SubmitAttemptRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.attemptService.Submit(ctx.Request.Context(), *claims, testID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// MyAttempts godoc
// @Summary Own attempt history
// @Tags Candidate - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AttemptSummaryResponse
// @Router /tests/my-attempts [get]
func (c *CandidateController) MyAttempts(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.attemptService.GetMine(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AttemptDetail godoc
// @Summary One attempt with answers
// @Tags Candidate - Attempts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDetailResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tests/attempt/{id} [get]
func (c *CandidateController) AttemptDetail(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseID(ctx, "id", "Attempt")
	if !ok {
		return
	}
	resp, err := c.attemptService.GetDetail(ctx.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ResolveToken godoc
// @Summary Open a test from an invitation link
// @Description Public. When a candidate token is sent it must belong to the invited email, and the assignment is linked to that account.
// @Tags Candidate - Tests
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} dto.TokenTestResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Router /tests/by-token/{token} [get]
func (c *CandidateController) ResolveToken(ctx *gin.Context) {
	token := strings.TrimSpace(ctx.Param("token"))
	if token == "" {
		controller.RespondError(ctx, apperror.NotFound("invitation not found"))
		return
	}
	viewer, _ := controller.Claims(ctx)
	resp, err := c.assignmentService.ResolveByToken(ctx.Request.Context(), token, viewer)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
