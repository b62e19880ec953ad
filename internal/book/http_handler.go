package book

import (
	"errors"
	"io"
	"net/http"

	"booksapi/internal/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// HTTPHandler serves the /books resource.
type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

// NewHTTPHandler creates a new book HTTP handler.
func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

type listResponse struct {
	Books []Book `json:"books"`
}

type bookResponse struct {
	Book Book `json:"book"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register mounts the /books routes on r.
func (h *HTTPHandler) Register(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{isbn}", h.GetByISBN)
		r.Put("/{isbn}", h.Update)
		r.Delete("/{isbn}", h.Delete)
	})
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Books: books})
}

// GetByISBN handles GET /books/{isbn}
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetByISBN(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bookResponse{Book: book})
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	book, err := h.service.Create(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger(r).WithField("isbn", book.ISBN).Info("book created")
	httpx.JSON(w, http.StatusCreated, bookResponse{Book: book})
}

// Update handles PUT /books/{isbn}. It answers 201 like Create.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	book, err := h.service.Update(r.Context(), chi.URLParam(r, "isbn"), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger(r).WithField("isbn", book.ISBN).Info("book updated")
	httpx.JSON(w, http.StatusCreated, bookResponse{Book: book})
}

// Delete handles DELETE /books/{isbn}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")
	if err := h.service.Delete(r.Context(), isbn); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger(r).WithField("isbn", isbn).Info("book deleted")
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Book deleted"})
}

func (h *HTTPHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return nil, false
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Could not read request body", nil)
		return nil, false
	}
	return body, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidErr *ValidationError
	switch {
	case errors.As(err, &invalidErr):
		details := make([]httpx.ErrorDetail, 0, len(invalidErr.Violations))
		for _, v := range invalidErr.Violations {
			details = append(details, httpx.ErrorDetail{Field: v.Field, Message: v.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book data", details)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	default:
		h.logger(r).WithError(err).Error("book request failed")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

func (h *HTTPHandler) logger(r *http.Request) logrus.FieldLogger {
	return h.log.WithField("request_id", httpx.RequestIDFrom(r))
}
