package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	// GetByID returns (nil, nil) when the prescription does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// ListByDoctor returns the doctor's prescriptions joined with patient
	// demographics, ordered by upload time then id.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]DoctorView, error)
	// ListByPatient returns the patient's prescriptions joined with the
	// prescribing doctor, same ordering.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]PatientView, error)
}
