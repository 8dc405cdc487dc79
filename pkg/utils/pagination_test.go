package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetCursorParams(t *testing.T) {
	cases := []struct {
		query string
		want  CursorParams
	}{
		{"", CursorParams{AfterSeq: 0, Limit: 0}},
		{"?after_seq=7&limit=10", CursorParams{AfterSeq: 7, Limit: 10}},
		{"?after_seq=-3&limit=-1", CursorParams{AfterSeq: 0, Limit: 0}},
		{"?after_seq=abc&limit=ten", CursorParams{AfterSeq: 0, Limit: 0}},
		{"?limit=5000", CursorParams{AfterSeq: 0, Limit: MaxPageLimit}},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/messages"+tc.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, tc.want, GetCursorParams(c), tc.query)
	}
}
