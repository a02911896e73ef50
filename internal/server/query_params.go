package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// optional parses a query value that may be absent. Blank means nil.
func optional[T any](raw string, parse func(string) (T, error)) (*T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	return optional(raw, strconv.ParseBool)
}

func parseOptionalInt64(raw string) (*int64, error) {
	return optional(raw, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// pathID reads a positive numeric route parameter and returns invalid for
// anything else.
func pathID(c *gin.Context, name string, invalid error) (int64, error) {
	id, err := parseOptionalInt64(c.Param(name))
	if err != nil || id == nil || *id <= 0 {
		return 0, invalid
	}
	return *id, nil
}
