package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, gin.H{"success": false, "error": gin.H{"code": errCode, "message": message}})
}

func JSONErrorDetails(c *gin.Context, code int, errCode, message, details string) {
	c.JSON(code, gin.H{"success": false, "error": gin.H{"code": errCode, "message": message, "details": details}})
}
