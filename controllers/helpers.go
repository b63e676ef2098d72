package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/middleware"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

// respondError writes the error envelope.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps a services error to its HTTP status. Rule
// violations carry their code through; anything else is a 500.
func respondServiceError(c *gin.Context, err error) {
	var ruleErr *services.RuleError
	if errors.As(err, &ruleErr) {
		respondError(c, statusForRuleCode(ruleErr.Code), ruleErr.Code, ruleErr.Message)
		return
	}
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

func statusForRuleCode(code string) int {
	switch code {
	case services.CodeForbidden:
		return http.StatusForbidden
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeValidation:
		return http.StatusBadRequest
	case services.CodeExternalService:
		return http.StatusBadGateway
	case services.CodeInvalidTransition, services.CodeGateClosed, services.CodeNotApproved,
		services.CodeStockShortfall, services.CodeMeasurementsLocked, services.CodeQCIncomplete:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// uintQuery parses an optional numeric query parameter, zero when absent
// or malformed.
func uintQuery(c *gin.Context, name string) uint {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

// requireUser loads the authenticated user or writes the error response.
func requireUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		var authErr *middleware.AuthError
		if errors.As(err, &authErr) && authErr.Code == "USER_NOT_FOUND" {
			respondError(c, http.StatusNotFound, authErr.Code, authErr.Message)
		} else {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		}
		return nil, false
	}
	return user, true
}

// requireStaff loads the authenticated user and rejects customers.
func requireStaff(c *gin.Context) (*models.User, bool) {
	user, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	if user.Role == models.RoleCustomer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Staff access only")
		return nil, false
	}
	return user, true
}
