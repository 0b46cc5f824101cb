package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/middleware"
	"github.com/teamdesk/teamdesk/internal/model"
)

func taskUpdateContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	tenantID := uuid.New()
	c.SetParamNames("tenantId", "taskId")
	c.SetParamValues(tenantID.String(), uuid.New().String())
	middleware.SetPrincipal(c, &middleware.Principal{
		ID:       uuid.New(),
		Role:     model.RoleUser,
		TenantID: &tenantID,
	})
	return c, rec
}

func TestTaskUpdateRejectsMalformedAssignee(t *testing.T) {
	h := NewTaskHandler(nil)
	c, rec := taskUpdateContext(t, `{"assignedTo":"not-a-uuid"}`)

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || len(env.Errors) == 0 || env.Errors[0].Field != "assignedTo" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestTaskUpdateRejectsMalformedDueDate(t *testing.T) {
	h := NewTaskHandler(nil)
	c, rec := taskUpdateContext(t, `{"dueDate":"yesterday"}`)

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || len(env.Errors) == 0 || env.Errors[0].Field != "dueDate" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestTaskUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := NewTaskHandler(nil)
	c, rec := taskUpdateContext(t, `{"status":"archived"}`)

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestTaskParamRejectsMalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	tenantID := uuid.New()
	c.SetParamNames("tenantId", "taskId")
	c.SetParamValues(tenantID.String(), "12345")
	middleware.SetPrincipal(c, &middleware.Principal{ID: uuid.New(), Role: model.RoleUser, TenantID: &tenantID})

	h := NewTaskHandler(nil)
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}
