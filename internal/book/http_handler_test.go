package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"booksapi/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleBook = Book{
	ISBN:      testutil.SampleISBN,
	AmazonURL: "http://a.co/test",
	Author:    "John Doe",
	Language:  "russian",
	Pages:     222,
	Publisher: "Springboard",
	Title:     "How to be a good person",
	Year:      2000,
}

func newTestRouter(t *testing.T) (*MockRepository, http.Handler, *test.Hook) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	log, hook := test.NewNullLogger()

	r := chi.NewRouter()
	NewHTTPHandler(NewService(mockRepo), log).Register(r)
	return mockRepo, r, hook
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBook(t *testing.T, w *httptest.ResponseRecorder) Book {
	t.Helper()
	var resp bookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Book
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().List(gomock.Any()).Return([]Book{sampleBook}, nil)

		w := serve(router, testutil.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var resp listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []Book{sampleBook}, resp.Books)
	})

	t.Run("empty store renders an empty array", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().List(gomock.Any()).Return(nil, nil)

		w := serve(router, testutil.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"books":[]}`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		mockRepo, router, hook := newTestRouter(t)
		mockRepo.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection reset"))

		w := serve(router, testutil.NewRequest(http.MethodGet, "/books", nil))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusInternalServerError, res.Code)
		assert.Equal(t, "INTERNAL_ERROR", res.ErrorCode())
		assert.NotContains(t, w.Body.String(), "connection reset")
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	})
}

func TestHTTPHandler_GetByISBN(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().GetByISBN(gomock.Any(), sampleBook.ISBN).Return(sampleBook, nil)

		w := serve(router, testutil.NewRequest(http.MethodGet, "/books/"+sampleBook.ISBN, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, sampleBook, decodeBook(t, w))
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().GetByISBN(gomock.Any(), "missing").Return(Book{}, ErrNotFound)

		w := serve(router, testutil.NewRequest(http.MethodGet, "/books/missing", nil))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusNotFound, res.Code)
		assert.Equal(t, "NOT_FOUND", res.ErrorCode())
		testutil.AssertResponseBody(t, res.Body, "success", false)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo, router, hook := newTestRouter(t)
		mockRepo.EXPECT().Create(gomock.Any(), sampleBook).Return(sampleBook, nil)

		w := serve(router, testutil.NewRequest(http.MethodPost, "/books", testutil.SampleBook()))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, sampleBook, decodeBook(t, w))
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "book created", hook.LastEntry().Message)
		assert.Equal(t, sampleBook.ISBN, hook.LastEntry().Data["isbn"])
	})

	t.Run("missing field", func(t *testing.T) {
		_, router, _ := newTestRouter(t)
		body := testutil.SampleBook()
		delete(body, "title")

		w := serve(router, testutil.NewRequest(http.MethodPost, "/books", body))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "VALIDATION_ERROR", res.ErrorCode())
		assert.Equal(t, []string{"title"}, res.ErrorFields())
	})

	t.Run("malformed json", func(t *testing.T) {
		_, router, _ := newTestRouter(t)

		w := serve(router, testutil.NewRawRequest(http.MethodPost, "/books", `{"isbn":`))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, []string{"body"}, res.ErrorFields())
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().Create(gomock.Any(), sampleBook).Return(Book{}, errors.New("duplicate key"))

		w := serve(router, testutil.NewRequest(http.MethodPost, "/books", testutil.SampleBook()))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	updated := sampleBook
	updated.Title = "How to be a better person"

	t.Run("success answers 201", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().Update(gomock.Any(), updated).Return(updated, nil)

		body := testutil.SampleBook()
		body["title"] = updated.Title
		w := serve(router, testutil.NewRequest(http.MethodPut, "/books/"+sampleBook.ISBN, body))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, updated, decodeBook(t, w))
	})

	t.Run("mistyped field is rejected before the store", func(t *testing.T) {
		_, router, _ := newTestRouter(t)
		body := testutil.SampleBook()
		body["amazon_url"] = true

		w := serve(router, testutil.NewRequest(http.MethodPut, "/books/"+sampleBook.ISBN, body))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, []string{"amazon_url"}, res.ErrorFields())
	})

	t.Run("isbn mismatch", func(t *testing.T) {
		_, router, _ := newTestRouter(t)

		w := serve(router, testutil.NewRequest(http.MethodPut, "/books/9876543210", testutil.SampleBook()))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, []string{"isbn"}, res.ErrorFields())
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().Update(gomock.Any(), sampleBook).Return(Book{}, ErrNotFound)

		w := serve(router, testutil.NewRequest(http.MethodPut, "/books/"+sampleBook.ISBN, testutil.SampleBook()))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().Delete(gomock.Any(), sampleBook.ISBN).Return(nil)

		w := serve(router, testutil.NewRequest(http.MethodDelete, "/books/"+sampleBook.ISBN, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Book deleted"}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo, router, _ := newTestRouter(t)
		mockRepo.EXPECT().Delete(gomock.Any(), "missing").Return(ErrNotFound)

		w := serve(router, testutil.NewRequest(http.MethodDelete, "/books/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_BodyTooLarge(t *testing.T) {
	_, router, _ := newTestRouter(t)
	r := testutil.NewRequest(http.MethodPost, "/books", testutil.SampleBook())
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 8)

	router.ServeHTTP(w, r)

	res := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", res.ErrorCode())
}
