package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Verbose controls whether 500 responses include the underlying error
// detail. Set once at startup (development environments only).
var Verbose bool

// ErrorBody is the JSON envelope for all error responses.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BadRequest sends 400 with an error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err})
}

// BadRequestDetail sends 400 with an error message and detail.
func BadRequestDetail(c *gin.Context, err, detail string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err, Message: detail})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, ErrorBody{Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err})
}

// NotFoundDetail sends 404 with a user-facing hint.
func NotFoundDetail(c *gin.Context, err, detail string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err, Message: detail})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, ErrorBody{Error: err})
}

// Internal sends 500. The underlying detail is only exposed when
// Verbose is enabled.
func Internal(c *gin.Context, detail string) {
	body := ErrorBody{Error: "Erro interno do servidor"}
	if Verbose {
		body.Message = detail
	}
	c.JSON(http.StatusInternalServerError, body)
}
