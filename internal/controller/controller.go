// Package controller holds the HTTP plumbing shared by the role-specific
// controllers: error rendering, request binding and the auth middleware.
package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/rs/zerolog/log"
)

const claimsKey = "claims"

// RespondError renders err as a dto.ErrorResponse with the status its kind
// maps to. Internal causes are only exposed in debug mode.
func RespondError(ctx *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err, "internal server error")
	}
	status := appErr.Kind.HTTPStatus()
	resp := dto.ErrorResponse{Message: appErr.Message, Details: appErr.Details}

	switch {
	case appErr.Kind == apperror.KindInternal:
		log.Error().Err(err).Str("method", ctx.Request.Method).Str("path", ctx.FullPath()).Msg("Request failed")
		if gin.Mode() == gin.DebugMode && appErr.Err != nil {
			resp.Details = append(resp.Details, appErr.Err.Error())
		}
	case status >= http.StatusInternalServerError:
		log.Warn().Err(err).Str("path", ctx.FullPath()).Msg("Upstream call failed")
	default:
		log.Debug().Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg("Request rejected")
	}
	ctx.AbortWithStatusJSON(status, resp)
}

// BindJSON binds the body into req and writes the 400 itself on failure.
func BindJSON(ctx *gin.Context, req any) bool {
	err := ctx.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	log.Warn().Err(err).Str("path", ctx.FullPath()).Msg("Failed to bind JSON")

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
			Message: "Request body too large",
			Details: []string{fmt.Sprintf("limit is %d bytes", tooLarge.Limit)},
		})
		return false
	}
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Message: "Invalid request body",
		Details: bindingDetails(err),
	})
	return false
}

func bindingDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.Split(fe.Namespace(), ".")[0]+".")
		if fe.Param() != "" {
			details = append(details, fmt.Sprintf("%s failed on %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			details = append(details, fmt.Sprintf("%s failed on %s", field, fe.Tag()))
		}
	}
	return details
}

// ParseID reads a positive numeric path parameter. On failure it writes a
// 400 naming the parameter and returns false.
func ParseID(ctx *gin.Context, param, label string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil || id == 0 {
		log.Warn().Str(param, ctx.Param(param)).Msg("Invalid ID format")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
			Message: fmt.Sprintf("Invalid %s ID format", label),
		})
		return 0, false
	}
	return uint(id), true
}

func setClaims(ctx *gin.Context, claims *auth.Claims) {
	ctx.Set(claimsKey, claims)
}

// Claims returns the verified caller, if the request carried a valid token.
func Claims(ctx *gin.Context) (*auth.Claims, bool) {
	v, ok := ctx.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// MustClaims is for handlers behind Authenticate. It writes a 401 when the
// claims are somehow missing.
func MustClaims(ctx *gin.Context) (*auth.Claims, bool) {
	claims, ok := Claims(ctx)
	if !ok {
		RespondError(ctx, apperror.Unauthorized("authentication required"))
		return nil, false
	}
	return claims, true
}
