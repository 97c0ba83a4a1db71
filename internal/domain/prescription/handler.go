package prescription

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescripto/vault/internal/domain/doctor"
	"github.com/prescripto/vault/internal/domain/patient"
	"github.com/prescripto/vault/internal/platform/auth"
)

// DoctorDirectory resolves the authenticated principal to a doctor record.
type DoctorDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// PatientRegistry is the find-or-create slice of the patient service.
type PatientRegistry interface {
	FindOrCreate(ctx context.Context, p *patient.Patient) (*patient.Patient, error)
}

type Handler struct {
	svc      *Service
	doctors  DoctorDirectory
	patients PatientRegistry
}

func NewHandler(svc *Service, doctors DoctorDirectory, patients PatientRegistry) *Handler {
	return &Handler{svc: svc, doctors: doctors, patients: patients}
}

// RegisterRoutes mounts the doctor-side prescription endpoints on the
// authenticated group and the download endpoint on the public group. The
// download route checks only the prescription id; see DESIGN.md.
func (h *Handler) RegisterRoutes(authed *echo.Group, public *echo.Group) {
	authed.POST("/doctor/upload-prescription", h.Upload)
	authed.GET("/doctor/prescriptions", h.ListMine)
	authed.GET("/doctor/:doctorId/prescriptions", h.ListForDoctor)
	public.GET("/patient/download", h.Download)
}

func (h *Handler) Upload(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	d, err := h.doctors.FindByID(c.Request().Context(), principal.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if d == nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}

	p := &patient.Patient{
		Name:  c.FormValue("patientName"),
		Phone: c.FormValue("patientPhone"),
		Email: c.FormValue("patientEmail"),
	}
	if v := c.FormValue("patientAddress"); v != "" {
		p.Address = &v
	}
	// unparsable enum values are dropped, not rejected
	if g, ok := patient.ParseGender(c.FormValue("gender")); ok {
		p.Gender = &g
	}
	if bg, ok := patient.ParseBloodGroup(c.FormValue("bloodGroup")); ok {
		p.BloodGroup = &bg
	}
	if v := c.FormValue("age"); v != "" {
		if age, err := strconv.Atoi(v); err == nil {
			p.Age = &age
		}
	}

	stored, err := h.patients.FindOrCreate(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer src.Close()

	pr, err := h.svc.Upload(c.Request().Context(), d.ID, stored.ID, fh.Filename, src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.svc.NotifyUploaded(c.Request().Context(), stored.Email, stored.Name, d.Name, pr.FileName)

	return c.JSON(http.StatusCreated, UploadResponse{
		ID:       pr.ID,
		FileName: pr.FileName,
		Message:  "Prescription uploaded successfully",
	})
}

func (h *Handler) ListMine(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return h.listFor(c, principal.DoctorID)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	if id != principal.DoctorID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot access another doctor's prescriptions")
	}
	return h.listFor(c, id)
}

func (h *Handler) listFor(c echo.Context, doctorID uuid.UUID) error {
	list, err := h.svc.ListByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.QueryParam("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, rc, err := h.svc.Download(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, p.FileName))
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}
