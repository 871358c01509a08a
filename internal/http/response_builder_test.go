package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"casal/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/x").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("code = %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" || w.Header().Get("Location") != "/x" {
		t.Errorf("headers = %v", w.Header())
	}
	var got map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got["n"] != 1 {
		t.Errorf("body = %q", w.Body)
	}
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("code = %d body = %q", w.Code, w.Body)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		want     string
	}{
		{fmt.Errorf("%w: eof", errBadRequest), http.StatusBadRequest, "invalid_request"},
		{core.ErrNoHousehold, http.StatusNotFound, "couple_not_found"},
		{fmt.Errorf("get: %w", core.ErrNotFound), http.StatusNotFound, "not_found"},
		{core.ErrSettlementRecord, http.StatusConflict, "settlement_record"},
		{fmt.Errorf("validate: %w", core.ErrInvalidSplit), http.StatusUnprocessableEntity, "invalid_input"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			code, name := classify(tt.err)
			if code != tt.wantCode || name != tt.want {
				t.Fatalf("classify(%v) = %d %s, want %d %s", tt.err, code, name, tt.wantCode, tt.want)
			}
		})
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(w, r, "test", errors.New("password=hunter2"))
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusInternalServerError || body.Error.Message != "internal error" {
		t.Fatalf("code = %d body = %+v", w.Code, body)
	}
}
