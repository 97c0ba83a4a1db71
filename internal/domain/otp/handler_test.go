package otp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescripto/vault/internal/domain/prescription"
)

type staticLister struct {
	views []prescription.PatientView
}

func (s *staticLister) ListByPatient(context.Context, uuid.UUID) ([]prescription.PatientView, error) {
	return s.views, nil
}

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc, &staticLister{}), f, echo.New()
}

func post(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequestOTP(t *testing.T) {
	h, f, e := newTestHandler()

	c, rec := post(e, "/api/patient/request-otp?email=p@x.com")
	if err := h.RequestOTP(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if len(f.mail.Calls()) != 1 {
		t.Error("expected a mail to be sent")
	}
}

func TestRequestOTP_UnknownEmail(t *testing.T) {
	h, _, e := newTestHandler()

	c, _ := post(e, "/api/patient/request-otp?email=ghost@x.com")
	err := h.RequestOTP(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestRequestOTP_MissingEmail(t *testing.T) {
	h, _, e := newTestHandler()

	c, _ := post(e, "/api/patient/request-otp")
	err := h.RequestOTP(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestRequestOTP_DeliveryFailure(t *testing.T) {
	h, f, e := newTestHandler()
	f.mail.ShouldFail = true

	c, _ := post(e, "/api/patient/request-otp?email=p@x.com")
	err := h.RequestOTP(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
}

func TestVerifyOTP_MissingParams(t *testing.T) {
	h, _, e := newTestHandler()

	c, _ := post(e, "/api/patient/verify-otp?email=p@x.com")
	err := h.VerifyOTP(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	h, f, e := newTestHandler()
	f.svc.Send(context.Background(), "p@x.com")

	c, _ := post(e, "/api/patient/verify-otp?email=p@x.com&otp=badbad")
	err := h.VerifyOTP(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
