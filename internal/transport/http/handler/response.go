package handler

import "github.com/gin-gonic/gin"

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"code": status, "data": data})
}

func respondList[T any](c *gin.Context, status int, items []T) {
	c.JSON(status, gin.H{"code": status, "data": items, "quantity": len(items)})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"code": status, "message": msg})
}
