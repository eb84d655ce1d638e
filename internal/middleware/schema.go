package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	apperrors "github.com/lingxijiao/backend/internal/errors"
)

const requestKey = "schema_request"

// maxBodyBytes bounds request bodies; the largest legal post is a few KB
const maxBodyBytes = 64 << 10

// Schemas maps a route path to a constructor for its request body
type Schemas map[string]func() any

// RequestSchema decodes and validates the body of every route listed in
// schemas before the handler runs. Bodies that are not a JSON object, carry
// unknown fields, have wrong types or fail binding tags are rejected with
// 400 ["error_parsing_request"]. Routes not listed, and requests that matched
// no route, pass through untouched.
func RequestSchema(schemas Schemas) gin.HandlerFunc {
	return func(c *gin.Context) {
		newRequest, ok := schemas[c.FullPath()]
		if !ok {
			c.Next()
			return
		}

		req := newRequest()
		if err := decodeStrict(c.Request, req); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusBadRequest, apperrors.ParseError().Codes)
			return
		}

		c.Set(requestKey, req)
		c.Next()
	}
}

func decodeStrict(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.ErrUnexpectedEOF
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) > maxBodyBytes {
		return errBodyTooLarge
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return binding.Validator.ValidateStruct(dst)
}

type schemaError string

func (e schemaError) Error() string { return string(e) }

const (
	errBodyTooLarge = schemaError("request body too large")
	errNotObject    = schemaError("request body is not a JSON object")
	errTrailingData = schemaError("unexpected data after JSON object")
)

// Request returns the typed body stored by RequestSchema
func Request[T any](c *gin.Context) (*T, bool) {
	value, exists := c.Get(requestKey)
	if !exists {
		return nil, false
	}
	req, ok := value.(*T)
	return req, ok
}
