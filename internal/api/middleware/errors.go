package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/models"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// Abort records err for ErrorBoundary and stops the chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorBoundary must be the outermost handler of every API route. It turns
// the last recorded error, or a panic, into an {error, details} response.
func ErrorBoundary() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logs.Logger.WithFields(logrus.Fields{
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"request_id": RequestID(c),
				}).Errorf("[Panic] %v\n%s", rec, debug.Stack())
				c.Abort()
				if !c.Writer.Written() {
					render(c, &service.Error{Kind: service.KindUnexpected, Message: "internal error"})
				}
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			render(c, c.Errors.Last().Err)
		}
	}
}

func render(c *gin.Context, err error) {
	svcErr := service.Wrap(err)
	entry := logs.Logger.WithFields(logrus.Fields{
		"kind":       svcErr.Kind,
		"path":       c.Request.URL.Path,
		"request_id": RequestID(c),
	})
	switch svcErr.Kind {
	case service.KindUpstream, service.KindUnexpected:
		entry.Errorf("[Error] %v", svcErr)
	default:
		entry.Debugf("[Error] %v", svcErr)
	}
	c.JSON(svcErr.Kind.Status(), models.NewErrorResponse(svcErr.Message, svcErr.Details))
}
