package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Marga-Ghale/ora-training-backend/internal/service"
)

// IDSource reads an identifier from the request.
type IDSource func(c *gin.Context) (string, error)

// OrgLocator yields the organization a request is scoped to.
type OrgLocator = IDSource

// Param reads a path parameter.
func Param(name string) IDSource {
	return func(c *gin.Context) (string, error) {
		return strings.TrimSpace(c.Param(name)), nil
	}
}

// BodyField reads a top-level string field of the JSON body. The body stays
// available to handlers through ShouldBindBodyWith.
func BodyField(field string) IDSource {
	return func(c *gin.Context) (string, error) {
		var body map[string]interface{}
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			return "", service.BadRequest("request body must be a JSON object")
		}
		value, ok := body[field].(string)
		if !ok || strings.TrimSpace(value) == "" {
			return "", service.BadRequest("%s is required", field)
		}
		return strings.TrimSpace(value), nil
	}
}

// OrgID uses the identifier from source as the organization id.
func OrgID(source IDSource) OrgLocator {
	return source
}

// CourseOrganizations resolves a course to its organization.
type CourseOrganizations interface {
	OrganizationOf(ctx context.Context, courseID string) (string, error)
}

// OrgOfCourse scopes the request to the organization owning the course
// named by source. Unknown courses are NotFound.
func OrgOfCourse(courses CourseOrganizations, source IDSource) OrgLocator {
	return func(c *gin.Context) (string, error) {
		courseID, err := source(c)
		if err != nil {
			return "", err
		}
		if courseID == "" {
			return "", service.BadRequest("courseId is required")
		}
		return courses.OrganizationOf(c.Request.Context(), courseID)
	}
}
