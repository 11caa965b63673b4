package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusAccepted).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Notification(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerSuccessNotification("Signed in successfully").
		Trigger("filters:cleared", struct{}{}).
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if _, ok := triggers["filters:cleared"]; !ok {
		t.Error("missing filters:cleared trigger")
	}
	var n struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(triggers["show-notification"], &n); err != nil {
		t.Fatalf("show-notification payload: %v", err)
	}
	if n.Type != "success" || n.Message != "Signed in successfully" || n.Duration != 3000 {
		t.Errorf("notification = %+v", n)
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, `<bad> & "input"`).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if strings.Contains(w.Body.String(), "<bad>") {
		t.Errorf("body was not escaped: %s", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Errorf("missing error notification: %s", w.Header().Get("HX-Trigger"))
	}
}

func TestRedirect(t *testing.T) {
	t.Run("htmx", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ui/stats", nil)
		req.Header.Set("HX-Request", "true")
		w := httptest.NewRecorder()
		redirect(w, req, "/login")

		if w.Code != http.StatusOK {
			t.Errorf("Status code = %d, want 200", w.Code)
		}
		if got := w.Header().Get("HX-Redirect"); got != "/login" {
			t.Errorf("HX-Redirect = %q, want /login", got)
		}
	})

	t.Run("browser", func(t *testing.T) {
		w := httptest.NewRecorder()
		redirect(w, httptest.NewRequest(http.MethodGet, "/", nil), "/login")

		if w.Code != http.StatusSeeOther {
			t.Errorf("Status code = %d, want 303", w.Code)
		}
		if got := w.Header().Get("Location"); got != "/login" {
			t.Errorf("Location = %q, want /login", got)
		}
	})
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, http.StatusBadRequest, "invalid date")

	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if strings.TrimSpace(w.Body.String()) != `{"error":"invalid date"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}
