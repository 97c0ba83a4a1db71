package otp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescripto/vault/internal/domain/prescription"
)

// PrescriptionLister is the slice of the prescription service the verify
// endpoint needs to return the patient's records.
type PrescriptionLister interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]prescription.PatientView, error)
}

type Handler struct {
	svc           *Service
	prescriptions PrescriptionLister
}

func NewHandler(svc *Service, prescriptions PrescriptionLister) *Handler {
	return &Handler{svc: svc, prescriptions: prescriptions}
}

// RegisterRoutes mounts the patient-facing OTP endpoints. They are
// unauthenticated; possession of the emailed code is the credential.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patient/request-otp", h.RequestOTP)
	api.POST("/patient/verify-otp", h.VerifyOTP)
}

func (h *Handler) RequestOTP(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		email = c.FormValue("email")
	}
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	err := h.svc.Send(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no patient with that email")
		}
		if errors.Is(err, ErrDeliveryFailed) {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not send OTP")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	email := c.QueryParam("email")
	code := c.QueryParam("otp")
	if email == "" {
		email = c.FormValue("email")
	}
	if code == "" {
		code = c.FormValue("otp")
	}
	if email == "" || code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and otp are required")
	}

	ok, err := h.svc.Verify(c.Request().Context(), email, code)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired OTP")
	}

	p, err := h.svc.patients.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no patient with that email")
	}

	list, err := h.prescriptions.ListByPatient(c.Request().Context(), p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}
