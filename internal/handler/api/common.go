package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func successResponse(c echo.Context, obj interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": true,
		"data":   obj,
	})
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]interface{}{
		"status": false,
		"error":  msg,
	})
}

func paginatedResponse(c echo.Context, key string, data interface{}, total int64, page, limit int) error {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": true,
		key:      data,
		"pagination": map[string]interface{}{
			"total":        total,
			"total_pages":  totalPages,
			"current_page": page,
			"per_page":     limit,
		},
	})
}

func pageParams(c echo.Context) (limit, page int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	return limit, page
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
