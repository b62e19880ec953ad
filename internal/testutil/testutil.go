package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
)

// SampleISBN is the ISBN of SampleBook.
const SampleISBN = "0123456789"

// SampleBook returns a fresh copy of the canonical test book in its wire form.
func SampleBook() map[string]any {
	return map[string]any{
		"isbn":       SampleISBN,
		"amazon_url": "http://a.co/test",
		"author":     "John Doe",
		"language":   "russian",
		"pages":      222,
		"publisher":  "Springboard",
		"title":      "How to be a good person",
		"year":       2000,
	}
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRawRequest creates a request whose body is sent verbatim.
func NewRawRequest(method, path, body string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// ErrorCode returns error.code from an error envelope, or "" when absent.
func (r RecordResponse) ErrorCode() string {
	errBody, _ := r.Body["error"].(map[string]interface{})
	code, _ := errBody["code"].(string)
	return code
}

// ErrorFields returns the field names listed in error.details.
func (r RecordResponse) ErrorFields() []string {
	errBody, _ := r.Body["error"].(map[string]interface{})
	details, _ := errBody["details"].([]interface{})
	var fields []string
	for _, d := range details {
		detail, _ := d.(map[string]interface{})
		if f, ok := detail["field"].(string); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}

// AssertResponseBody checks if the response body contains expected field
func AssertResponseBody(t interface {
	Errorf(format string, args ...any)
}, body map[string]interface{}, key string, expectedValue interface{}) {
	value, ok := body[key]
	if !ok {
		t.Errorf("response body missing key %q", key)
		return
	}
	if value != expectedValue {
		t.Errorf("got %v for key %q, want %v", value, key, expectedValue)
	}
}
