package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/response"
)

// HandleError logs err and writes the {error} body used by /health.
func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	c.JSON(status, response.Error(msg))
}

// HandleFailure logs err and writes the {success:false, message} body used by
// /auth and /users.
func HandleFailure(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	if status >= 500 {
		logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	} else {
		logger.Warnf("[request_id=%s] %s: %v", requestID, msg, err)
	}
	c.JSON(status, response.Failure(msg))
}

func HandleSuccess(c *gin.Context, logger internal.Logger, status int, body interface{}) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(status, body)
}
