package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/dto/response"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return nil
	}
	return &userID
}

// requireUser writes 401 and returns false when the request is anonymous
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return uuid.Nil, false
	}
	return *userID, true
}

// uuidParam parses a path parameter and writes 400 when it is malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// srnoParam parses a positive serial number path parameter
func srnoParam(c *gin.Context) (int, bool) {
	srno, err := strconv.Atoi(c.Param("srno"))
	if err != nil || srno < 1 {
		response.BadRequest(c, "Invalid srno")
		return 0, false
	}
	return srno, true
}
