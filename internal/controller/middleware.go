package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
)

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			RespondError(ctx, apperror.Unauthorized("authorization token required"))
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			RespondError(ctx, err)
			return
		}
		setClaims(ctx, claims)
		ctx.Next()
	}
}

// OptionalAuthenticate attaches claims when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := bearerToken(ctx); token != "" {
			if claims, err := tokens.Verify(token); err == nil {
				setClaims(ctx, claims)
			}
		}
		ctx.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := MustClaims(ctx)
		if !ok {
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				ctx.Next()
				return
			}
		}
		RespondError(ctx, apperror.Forbidden("access denied for role %s", claims.Role))
	}
}

// BodyLimit caps request bodies at n bytes. Oversized JSON bodies surface
// as a 413 from BindJSON.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if n > 0 && ctx.Request.Body != nil {
			if ctx.Request.ContentLength > n {
				ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: "Request body too large"})
				return
			}
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, n)
		}
		ctx.Next()
	}
}
