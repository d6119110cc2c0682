package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string            `json:"error_code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

// Respond renders err using its typed status. Unknown errors become a 500 and
// are attached to the gin context so the request logger records them.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)

	var coded Coded
	if !errors.As(err, &coded) {
		Internal(c, "internal_error", "Unexpected error.")
		return
	}

	body := HTTPError{
		Code:    coded.Code(),
		Message: messageFor(coded),
	}
	if v, ok := coded.(*ValidationError); ok {
		body.Details = v.Fields
	}

	c.AbortWithStatusJSON(coded.Status(), body)
}

func messageFor(err Coded) string {
	switch e := err.(type) {
	case *ValidationError:
		return e.Message
	case *ConflictError:
		if e.Message != "" {
			return e.Message
		}
		return "Conflict."
	case *InvalidTransitionError:
		return e.Error()
	case *NotFoundError:
		return e.Error()
	case *ForbiddenError:
		return e.Message
	case *UnauthorizedError:
		return "Authentication required."
	case *PersistenceError:
		return "Storage temporarily unavailable."
	default:
		return err.Error()
	}
}
