package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescripto/vault/internal/domain/doctor"
	"github.com/prescripto/vault/internal/domain/patient"
	"github.com/prescripto/vault/internal/platform/auth"
)

// -- Mock collaborators --

type mockDoctors struct {
	byID map[uuid.UUID]*doctor.Doctor
}

func (m *mockDoctors) FindByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return m.byID[id], nil
}

type mockPatients struct {
	repo    *mockRepo
	byEmail map[string]*patient.Patient
}

func (m *mockPatients) FindOrCreate(_ context.Context, p *patient.Patient) (*patient.Patient, error) {
	if existing, ok := m.byEmail[p.Email]; ok {
		return existing, nil
	}
	stored := *p
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	m.byEmail[stored.Email] = &stored
	m.repo.patients[stored.ID] = &stored
	return &stored, nil
}

type fixture struct {
	h      *Handler
	e      *echo.Echo
	repo   *mockRepo
	doctor *doctor.Doctor
}

func newFixture() *fixture {
	svc, repo := newTestService()
	d := &doctor.Doctor{ID: uuid.New(), Name: "Dr. A", Email: "a@x.com"}
	repo.doctors[d.ID] = doctorInfo{name: d.Name, email: d.Email}
	h := NewHandler(svc,
		&mockDoctors{byID: map[uuid.UUID]*doctor.Doctor{d.ID: d}},
		&mockPatients{repo: repo, byEmail: make(map[string]*patient.Patient)})
	return &fixture{h: h, e: echo.New(), repo: repo, doctor: d}
}

func multipartBody(t *testing.T, fields map[string]string, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		io.Copy(fw, strings.NewReader(fileContent))
	}
	w.Close()
	return buf, w.FormDataContentType()
}

func (f *fixture) uploadRequest(t *testing.T, fields map[string]string, fileName, fileContent string, principal *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body, contentType := multipartBody(t, fields, fileName, fileContent)
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/upload-prescription", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if principal != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	return f.e.NewContext(req, rec), rec
}

func principalFor(d *doctor.Doctor) *auth.Principal {
	return &auth.Principal{DoctorID: d.ID, Name: d.Name, Email: d.Email}
}

func TestUploadHandler(t *testing.T) {
	f := newFixture()

	c, rec := f.uploadRequest(t, map[string]string{
		"patientName":  "Jane",
		"patientPhone": "555-0100",
		"patientEmail": "p@x.com",
		"gender":       "female",
		"bloodGroup":   "O+",
		"age":          "34",
	}, "scan.pdf", "%PDF-1.4", principalFor(f.doctor))

	if err := f.h.Upload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if resp.FileName != "scan.pdf" {
		t.Errorf("unexpected file name %s", resp.FileName)
	}

	if len(f.repo.rows) != 1 {
		t.Fatalf("expected one prescription, got %d", len(f.repo.rows))
	}
	pa := f.repo.patients[f.repo.rows[0].PatientID]
	if pa == nil || pa.Email != "p@x.com" {
		t.Fatal("expected patient created from form fields")
	}
	if pa.Gender == nil || *pa.Gender != patient.GenderFemale {
		t.Error("expected parsed gender")
	}
	if pa.BloodGroup == nil || *pa.BloodGroup != patient.BloodOPos {
		t.Error("expected parsed blood group")
	}
}

func TestUploadHandler_UnparsableEnumsDropped(t *testing.T) {
	f := newFixture()

	c, rec := f.uploadRequest(t, map[string]string{
		"patientName":  "Jane",
		"patientPhone": "555-0100",
		"patientEmail": "p@x.com",
		"gender":       "martian",
		"bloodGroup":   "C+",
	}, "scan.pdf", "x", principalFor(f.doctor))

	if err := f.h.Upload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	pa := f.repo.patients[f.repo.rows[0].PatientID]
	if pa.Gender != nil || pa.BloodGroup != nil {
		t.Error("unparsable enum values must be stored as absent")
	}
}

func TestUploadHandler_NoPrincipal(t *testing.T) {
	f := newFixture()

	c, _ := f.uploadRequest(t, map[string]string{
		"patientName": "Jane", "patientPhone": "1", "patientEmail": "p@x.com",
	}, "scan.pdf", "x", nil)

	err := f.h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestUploadHandler_UnknownDoctor(t *testing.T) {
	f := newFixture()
	ghost := &doctor.Doctor{ID: uuid.New(), Name: "Ghost", Email: "g@x.com"}

	c, _ := f.uploadRequest(t, map[string]string{
		"patientName": "Jane", "patientPhone": "1", "patientEmail": "p@x.com",
	}, "scan.pdf", "x", principalFor(ghost))

	err := f.h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestUploadHandler_MissingFile(t *testing.T) {
	f := newFixture()

	c, _ := f.uploadRequest(t, map[string]string{
		"patientName": "Jane", "patientPhone": "1", "patientEmail": "p@x.com",
	}, "", "", principalFor(f.doctor))

	err := f.h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestListForDoctor_Forbidden(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), principalFor(f.doctor)))
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.SetParamNames("doctorId")
	c.SetParamValues(uuid.NewString())

	err := f.h.ListForDoctor(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestListForDoctor_OwnID(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), principalFor(f.doctor)))
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.SetParamNames("doctorId")
	c.SetParamValues(f.doctor.ID.String())

	if err := f.h.ListForDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestDownloadHandler(t *testing.T) {
	f := newFixture()

	c, _ := f.uploadRequest(t, map[string]string{
		"patientName": "Jane", "patientPhone": "1", "patientEmail": "p@x.com",
	}, "scan.pdf", "the-bytes", principalFor(f.doctor))
	f.h.Upload(c)

	id := f.repo.rows[0].ID
	req := httptest.NewRequest(http.MethodGet, "/api/patient/download?id="+id.String(), nil)
	rec := httptest.NewRecorder()
	c = f.e.NewContext(req, rec)

	if err := f.h.Download(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, `attachment; filename="scan.pdf"`) {
		t.Errorf("unexpected content disposition %q", got)
	}
	if rec.Body.String() != "the-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestDownloadHandler_NotFound(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/patient/download?id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)

	err := f.h.Download(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
