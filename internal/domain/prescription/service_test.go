package prescription

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prescripto/vault/internal/domain/patient"
	"github.com/prescripto/vault/internal/platform/blobstore"
	"github.com/prescripto/vault/internal/platform/mailer"
)

// -- Mock Repository --

type doctorInfo struct{ name, email string }

type mockRepo struct {
	rows     []*Prescription
	doctors  map[uuid.UUID]doctorInfo
	patients map[uuid.UUID]*patient.Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		doctors:  make(map[uuid.UUID]doctorInfo),
		patients: make(map[uuid.UUID]*patient.Patient),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.UploadedAt = time.Now()
	stored := *p
	m.rows = append(m.rows, &stored)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]DoctorView, error) {
	views := []DoctorView{}
	for _, p := range m.rows {
		if p.DoctorID != doctorID {
			continue
		}
		v := DoctorView{ID: p.ID, FileName: p.FileName, UploadedAt: p.UploadedAt}
		if pa, ok := m.patients[p.PatientID]; ok {
			v.PatientName = &pa.Name
			v.PatientEmail = &pa.Email
			v.PatientPhone = &pa.Phone
			v.PatientAge = pa.Age
			v.PatientGender = pa.Gender
			v.PatientBloodGroup = pa.BloodGroup
		}
		views = append(views, v)
	}
	return views, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]PatientView, error) {
	views := []PatientView{}
	for _, p := range m.rows {
		if p.PatientID != patientID {
			continue
		}
		v := PatientView{ID: p.ID, FileName: p.FileName, UploadedAt: p.UploadedAt}
		if d, ok := m.doctors[p.DoctorID]; ok {
			v.DoctorName = d.name
			v.DoctorEmail = d.email
		}
		if pa, ok := m.patients[patientID]; ok {
			v.PatientName = pa.Name
			v.PatientEmail = pa.Email
		}
		views = append(views, v)
	}
	return views, nil
}

func newTestService() (*Service, *mockRepo) {
	svc, repo, _ := newTestServiceWithMail()
	return svc, repo
}

func newTestServiceWithMail() (*Service, *mockRepo, *mailer.Mock) {
	repo := newMockRepo()
	mock := &mailer.Mock{}
	svc := NewService(repo, blobstore.NewMemStore(),
		mailer.New(mock, mailer.NewTemplateEngine()), zerolog.Nop())
	return svc, repo, mock
}

func TestNotifyUploaded(t *testing.T) {
	svc, _, mock := newTestServiceWithMail()

	svc.NotifyUploaded(context.Background(), "p@x.com", "Jane", "Dr. A", "scan.pdf")

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one mail, got %d", len(calls))
	}
	if calls[0].To != "p@x.com" {
		t.Errorf("unexpected recipient %s", calls[0].To)
	}
}

func TestNotifyUploaded_FailureIsSwallowed(t *testing.T) {
	svc, _, mock := newTestServiceWithMail()
	mock.ShouldFail = true

	// must not panic or surface the error
	svc.NotifyUploaded(context.Background(), "p@x.com", "Jane", "Dr. A", "scan.pdf")
}

func TestUpload(t *testing.T) {
	svc, repo := newTestService()
	doctorID, patientID := uuid.New(), uuid.New()

	p, err := svc.Upload(context.Background(), doctorID, patientID,
		"scan.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if p.FileName != "scan.pdf" {
		t.Errorf("file name must be preserved, got %s", p.FileName)
	}
	if !strings.Contains(p.FilePath, "_scan.pdf") {
		t.Errorf("stored path must carry a timestamp prefix, got %s", p.FilePath)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one stored row, got %d", len(repo.rows))
	}
}

func TestUpload_EmptyFileName(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), "", strings.NewReader("x"))
	if err == nil {
		t.Error("expected error for empty file name")
	}
}

func TestDownload(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Upload(context.Background(), uuid.New(), uuid.New(),
		"scan.pdf", strings.NewReader("content-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, rc, err := svc.Download(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	if got.FileName != "scan.pdf" {
		t.Errorf("unexpected file name %s", got.FileName)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "content-bytes" {
		t.Errorf("unexpected content %q", body)
	}
}

func TestDownload_Absent(t *testing.T) {
	svc, _ := newTestService()

	p, rc, err := svc.Download(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil || rc != nil {
		t.Error("expected nil result for absent prescription")
	}
}

func TestListByDoctor_OnlyOwnRows(t *testing.T) {
	svc, _ := newTestService()
	docA, docB := uuid.New(), uuid.New()

	svc.Upload(context.Background(), docA, uuid.New(), "a1.pdf", strings.NewReader("1"))
	svc.Upload(context.Background(), docB, uuid.New(), "b1.pdf", strings.NewReader("2"))
	svc.Upload(context.Background(), docA, uuid.New(), "a2.pdf", strings.NewReader("3"))

	list, err := svc.ListByDoctor(context.Background(), docA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list))
	}
	if list[0].FileName != "a1.pdf" || list[1].FileName != "a2.pdf" {
		t.Error("expected insertion order")
	}
}
