package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]int{"total": 300}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Body.String() != "{\"total\":300}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Body("text/plain; charset=utf-8", []byte("report")).
		Attachment("alice_November_2025.txt").
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="alice_November_2025.txt"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "report" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *ResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "{\"error\":\"invalid input\"}\n",
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("unknown category"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "{\"error\":\"unknown category\"}\n",
		},
		{
			name:       "conflict",
			builder:    ConflictError("budget already set"),
			wantStatus: http.StatusConflict,
			wantBody:   "{\"error\":\"budget already set\"}\n",
		},
		{
			name:       "not found",
			builder:    NotFoundError("report not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   "{\"error\":\"report not found\"}\n",
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("internal error"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "{\"error\":\"internal error\"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}
