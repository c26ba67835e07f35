package handler

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func reportContext(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/reports/stock"+query, nil)
	return c
}

func TestYearParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	current := time.Now().Year()

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"explicit year", "?year=2024", 2024},
		{"missing defaults to current year", "", current},
		{"non-numeric falls back", "?year=abc", current},
		{"before 2000 falls back", "?year=1999", current},
		{"after 2200 falls back", "?year=2500", current},
		{"current year accepted", "?year=" + strconv.Itoa(current), current},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := yearParam(reportContext(tc.query)); got != tc.want {
				t.Errorf("yearParam(%q) = %d, want %d", tc.query, got, tc.want)
			}
		})
	}
}
