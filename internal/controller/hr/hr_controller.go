package hr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/controller"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/service"
	"github.com/rs/zerolog/log"
)

// HRController serves every /hr route. All handlers expect Authenticate and
// RequireRole(hr) to have run.
type HRController struct {
	testService       service.TestService
	assignmentService service.AssignmentService
	attemptService    service.AttemptService
	reportService     service.ReportService
	generationService service.GenerationService
	caches            *cache.Caches
}

func NewHRController(
	testService service.TestService,
	assignmentService service.AssignmentService,
	attemptService service.AttemptService,
	reportService service.ReportService,
	generationService service.GenerationService,
	caches *cache.Caches,
) *HRController {
	return &HRController{
		testService:       testService,
		assignmentService: assignmentService,
		attemptService:    attemptService,
		reportService:     reportService,
		generationService: generationService,
		caches:            caches,
	}
}

// CreateTest godoc
// @Summary (HR) Create a test
// @Description HR creates a test with its questions. Each question needs at least one option and at least one correct option.
// @Tags HR - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_data body dto.TestCreateRequest true "Test and questions"
// @Success 201 {object} dto.TestResponse "Test created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /hr/create-test [post]
func (c *HRController) CreateTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	var req dto.TestCreateRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.testService.CreateTest(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UpdateTest godoc
// @Summary (HR) Update a test
// @Description Updates metadata and, when questions are given, replaces them. Questions cannot be replaced once the test has attempts.
// @Tags HR - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Param test_data body dto.TestUpdateRequest true "Fields to change"
// @Success 200 {object} dto.TestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Test already has attempts"
// @Router /hr/tests/{testId} [put]
func (c *HRController) UpdateTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "testId", "Test")
	if !ok {
		return
	}
	var req dto.TestUpdateRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.testService.UpdateTest(ctx.Request.Context(), claims.UserID, testID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteTest godoc
// @Summary (HR) Delete a test
// @Description Soft-deletes the test. Attempt history stays readable.
// @Tags HR - Tests
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Success 204 "Deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse
// @Router /hr/tests/{testId} [delete]
func (c *HRController) DeleteTest(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "testId", "Test")
	if !ok {
		return
	}
	if err := c.testService.DeleteTest(ctx.Request.Context(), claims.UserID, testID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// MyTests godoc
// @Summary (HR) List own tests
// @Tags HR - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryResponse
// @Router /hr/my-tests [get]
func (c *HRController) MyTests(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	resp, err := c.testService.ListOwnedTests(ctx.Request.Context(), claims.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// TogglePublish godoc
// @Summary (HR) Toggle publication
// @Tags HR - Tests
// @Produce json
// @Security BearerAuth
// @Param testId path int true "Test ID"
// @Success 200 {object} dto.TestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /hr/toggle-publish/{testId} [post]
func (c *HRController) TogglePublish(ctx *gin.Context) {
	claims, ok := controller.MustClaims(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseID(ctx, "testId", "Test")
	if !ok {
		return
	}
	resp, err := c.testService.TogglePublish(ctx.Request.Context(), claims.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GenerateQuestions godoc
// @Summary (HR) Generate questions from text
// @Description Calls the configured question generator and returns normalized questions ready to be used in a test.
// @Tags HR - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateQuestionsRequest true "Source text and options"
// @Success 200 {object} dto.GenerateQuestionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse "Generator returned an unusable response"
// @Failure 503 {object} dto.ErrorResponse "Generator unreachable"
// @Failure 504 {object} dto.ErrorResponse "Generator timed out"
// @Router /hr/generate-questions [post]
func (c *HRController) GenerateQuestions(ctx *gin.Context) {
	var req dto.GenerateQuestionsRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.generationService.GenerateQuestions(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ClearCache godoc
// @Summary (HR) Drop all cached reads
// @Tags HR - System
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Router /hr/cache/clear [post]
func (c *HRController) ClearCache(ctx *gin.Context) {
	c.caches.Clear()
	if claims, ok := controller.Claims(ctx); ok {
		log.Info().Uint("hrId", claims.UserID).Msg("Cache cleared")
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "cache cleared"})
}
