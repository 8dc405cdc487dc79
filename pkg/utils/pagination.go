package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxPageLimit = 200

// CursorParams represents sequence-cursor pagination parameters.
type CursorParams struct {
	AfterSeq int64
	Limit    int
}

// GetCursorParams extracts after_seq and limit from the query string. A missing or
// invalid limit is left at 0 so the caller's configured default applies.
func GetCursorParams(c echo.Context) CursorParams {
	afterSeq, _ := strconv.ParseInt(c.QueryParam("after_seq"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	if afterSeq < 0 {
		afterSeq = 0
	}
	if limit < 0 {
		limit = 0
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return CursorParams{
		AfterSeq: afterSeq,
		Limit:    limit,
	}
}
