package prescription

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prescripto/vault/internal/platform/blobstore"
	"github.com/prescripto/vault/internal/platform/mailer"
)

type Service struct {
	repo  Repository
	blobs blobstore.Store
	mail  *mailer.Mailer
	log   zerolog.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewService(repo Repository, blobs blobstore.Store, mail *mailer.Mailer, log zerolog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, mail: mail, log: log, now: time.Now}
}

// storedName prefixes the upload's base name with a millisecond timestamp
// so repeated uploads of "scan.pdf" land under distinct keys.
func (s *Service) storedName(fileName string) string {
	return fmt.Sprintf("%d_%s", s.now().UnixMilli(), filepath.Base(fileName))
}

// Upload stores the file content and records the prescription against the
// doctor and patient. The returned prescription carries the generated id
// and upload timestamp.
func (s *Service) Upload(ctx context.Context, doctorID, patientID uuid.UUID, fileName string, content io.Reader) (*Prescription, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	path, err := s.blobs.Store(ctx, s.storedName(fileName), content)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	p := &Prescription{
		FileName:  fileName,
		FilePath:  path,
		DoctorID:  doctorID,
		PatientID: patientID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save prescription: %w", err)
	}

	s.log.Info().
		Stringer("id", p.ID).
		Stringer("doctor_id", doctorID).
		Stringer("patient_id", patientID).
		Str("file_name", fileName).
		Msg("prescription uploaded")
	return p, nil
}

// NotifyUploaded mails the patient that a new prescription is available.
// Best effort: a delivery failure is logged, never surfaced, the upload
// already succeeded.
func (s *Service) NotifyUploaded(ctx context.Context, patientEmail, patientName, doctorName, fileName string) {
	err := s.mail.SendTemplate(ctx, "prescription-uploaded", map[string]string{
		"patient_name": patientName,
		"doctor_name":  doctorName,
		"file_name":    fileName,
	}, patientEmail)
	if err != nil {
		s.log.Warn().Err(err).Str("email", patientEmail).Msg("upload notification failed")
	}
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]DoctorView, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]PatientView, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// FindByID returns (nil, nil) when absent.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

// Download opens the stored file for the prescription. It returns
// (nil, nil, nil) when the prescription does not exist; a missing blob for
// an existing row is an error, not an absence.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*Prescription, io.ReadCloser, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, nil
	}

	rc, err := s.blobs.Open(ctx, p.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored file: %w", err)
	}
	return p, rc, nil
}
