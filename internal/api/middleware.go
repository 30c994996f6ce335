package api

import (
	"strings"

	"franchise-notifications/internal/common/auth"
	apperrors "franchise-notifications/internal/common/errors"
	"franchise-notifications/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxKeyIdentity = "identity"
	headerUserRole = "X-User-Role"
	headerUserID   = "X-User-ID"
)

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := s.identify(c)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ctxKeyIdentity, id)
		c.Next()
	}
}

func (s *Server) identify(c *gin.Context) (*auth.Identity, error) {
	if s.verifier == nil {
		role := models.Role(strings.ToUpper(strings.TrimSpace(c.GetHeader(headerUserRole))))
		if !role.IsValid() {
			return nil, apperrors.NewAuthenticationError(headerUserRole + " header must be ADMIN or FRANCHISEE")
		}
		return &auth.Identity{UserID: c.GetHeader(headerUserID), Role: role}, nil
	}

	tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || tokenString == "" {
		return nil, apperrors.NewAuthenticationError("bearer token required")
	}
	return s.verifier.Verify(tokenString)
}

func identityFrom(c *gin.Context) *auth.Identity {
	if v, ok := c.Get(ctxKeyIdentity); ok {
		if id, ok := v.(*auth.Identity); ok {
			return id
		}
	}
	return &auth.Identity{}
}

func abortWithError(c *gin.Context, err error) {
	stdErr, ok := apperrors.As(err)
	if !ok {
		stdErr = apperrors.NewInternalError(err)
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatus(stdErr), gin.H{
		"error": gin.H{
			"code":    stdErr.Code,
			"message": stdErr.Message,
			"details": stdErr.Details,
		},
	})
}

func badRequest(c *gin.Context, details string) {
	abortWithError(c, apperrors.NewValidationError(details))
}
