package orderControllers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyKey reads the client-supplied checkout dedup key; empty means
// the caller opted out of replay protection.
func IdempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(IdempotencyHeader))
}
