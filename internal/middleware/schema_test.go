package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/dto"
	"github.com/lingxijiao/backend/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaRouter(t *testing.T, reached *bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSchema(Schemas{
		"/post/load": func() any { return &dto.PostQuery{} },
		"/feedback":  func() any { return &dto.FeedbackRequest{} },
	}))
	router.POST("/post/load", func(c *gin.Context) {
		*reached = true
		req, ok := Request[dto.PostQuery](c)
		require.True(t, ok)
		c.JSON(http.StatusOK, req)
	})
	router.POST("/feedback", func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	})
	router.POST("/other", func(c *gin.Context) {
		*reached = true
		_, ok := Request[dto.PostQuery](c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestSchemaAcceptsValidBody(t *testing.T) {
	reached := false
	router := schemaRouter(t, &reached)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/post/load",
		strings.NewReader(`{"gender":"female","searchKeyword":"北京","postNumber":10,"startTimestamp":0}`)))

	assert.True(t, reached)
	require.Equal(t, http.StatusOK, w.Code)
	var echoed dto.PostQuery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &echoed))
	assert.Equal(t, "北京", echoed.SearchKeyword)
	assert.Equal(t, 10, echoed.PostNumber)
}

func TestRequestSchemaIgnoresUnmatchedRoutes(t *testing.T) {
	reached := false
	router := schemaRouter(t, &reached)
	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "index")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/post/load", nil))

	assert.False(t, reached)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "index", w.Body.String())
}

func TestRequestSchemaRejectsBadBodies(t *testing.T) {
	bodies := map[string]string{
		"empty":          ``,
		"array":          `[]`,
		"null":           `null`,
		"wrong type":     `{"gender":"male","postNumber":"ten"}`,
		"unknown field":  `{"gender":"male","postNumber":1,"admin":true}`,
		"bad enum":       `{"gender":"other","postNumber":1}`,
		"missing gender": `{"postNumber":1}`,
		"negative":       `{"gender":"male","postNumber":-1}`,
		"trailing":       `{"gender":"male"}{"gender":"male"}`,
		"truncated":      `{"gender":"male"`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			reached := false
			router := schemaRouter(t, &reached)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/post/load", strings.NewReader(body)))

			assert.False(t, reached, "handler must not run")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `["error_parsing_request"]`, w.Body.String())
		})
	}
}

func TestRequestSchemaIgnoresUnlistedRoutes(t *testing.T) {
	reached := false
	router := schemaRouter(t, &reached)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/other", strings.NewReader("not json")))
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestSchemaFeedbackMustBeObject(t *testing.T) {
	reached := false
	router := schemaRouter(t, &reached)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`"just a string"`)))
	assert.False(t, reached)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDAndLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), LocaleMiddleware())
	router.GET("/t", func(c *gin.Context) {
		c.String(http.StatusOK, "%s|%s", RequestID(c), i18n.FromContext(c.Request.Context()).Language())
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("X-Request-ID", "abc")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc|en", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "en", w.Header().Get("Content-Language"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.True(t, strings.HasSuffix(w.Body.String(), "|zh"))
}
