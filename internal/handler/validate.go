package handler

import (
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/apperr"
)

var (
	emailRe     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	subdomainRe = regexp.MustCompile(`^[a-z0-9-]{3,63}$`)
)

const maxNameLen = 255

type fieldErrors []apperr.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperr.FieldError{Field: field, Message: message})
}

func (f *fieldErrors) required(field, value string) {
	if value == "" {
		f.add(field, field+" is required")
	}
}

func (f *fieldErrors) maxLen(field, value string, limit int) {
	if len(value) > limit {
		f.add(field, field+" must be at most "+strconv.Itoa(limit)+" characters")
	}
}

func (f *fieldErrors) email(field, value string) {
	if value != "" && !emailRe.MatchString(value) {
		f.add(field, "Invalid email format")
	}
}

func (f *fieldErrors) subdomain(field, value string) {
	if value != "" && !subdomainRe.MatchString(value) {
		f.add(field, "Subdomain must be 3-63 lowercase letters, numbers, or hyphens")
	}
}

// err returns a validation error when any check failed.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(f)
}

// pageParams parses the page and limit query parameters, falling back to
// defaults on absent or malformed values.
func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return page, limit
}
