package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// memberIDKey is the key used to store the authenticated member's ID in the request context.
const memberIDKey = contextKey("memberID")

// WithMemberID returns a copy of ctx carrying the authenticated member id.
func WithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberIDKey, memberID)
}

// GetMemberIDFromContext retrieves the authenticated member ID from the request.
// It returns the member ID and a boolean indicating if it was found.
func GetMemberIDFromContext(c *gin.Context) (string, bool) {
	memberID, ok := c.Request.Context().Value(memberIDKey).(string)
	if !ok || memberID == "" {
		return "", false
	}
	return memberID, true
}
