package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeNotFound is the envelope code of the 404 page.
const CodeNotFound = 40400

// JSONResponse is the envelope every JSON endpoint answers with. Code 0 means success.
type JSONResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Respond(ctx *gin.Context, status, code int, message string, data any) {
	ctx.JSON(status, JSONResponse{Code: code, Message: message, Data: data})
}

func Success(ctx *gin.Context, data any) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

func Error(ctx *gin.Context, status, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// NotFound answers 404 with the requested path and stops the handler chain.
func NotFound(ctx *gin.Context) {
	ctx.Abort()
	Respond(ctx, http.StatusNotFound, CodeNotFound, "page not found", gin.H{"path": ctx.Request.URL.Path})
}

// Redirect answers 302 Found.
func Redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusFound, location)
}
