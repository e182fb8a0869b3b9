package utils

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateStruct runs the `validate` tags of s.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ParseUintParam reads a positive integer path parameter.
func ParseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrBadRequest("Invalid " + name)
	}
	return uint(n), nil
}

// ParsePage reads page and pageSize query values, clamping pageSize to max.
func ParsePage(c *fiber.Ctx, defaultSize, max int) (page, pageSize int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.Query("pageSize", strconv.Itoa(defaultSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > max {
		pageSize = max
	}
	return page, pageSize
}
