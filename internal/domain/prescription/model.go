package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/prescripto/vault/internal/domain/patient"
)

// Prescription maps to the prescription table. Rows are immutable once
// written; there is no update or delete path.
type Prescription struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FilePath   string    `db:"file_path" json:"-"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
	DoctorID   uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"fileName"`
	Message  string    `json:"message"`
}

// DoctorView is a prescription as a doctor sees their own list: the row
// joined with the patient's demographics. Patient fields are nil when the
// linked patient row is gone.
type DoctorView struct {
	ID                uuid.UUID           `json:"id"`
	FileName          string              `json:"fileName"`
	UploadedAt        time.Time           `json:"uploadedAt"`
	PatientName       *string             `json:"patientName"`
	PatientEmail      *string             `json:"patientEmail"`
	PatientPhone      *string             `json:"patientPhone"`
	PatientAge        *int                `json:"patientAge"`
	PatientGender     *patient.Gender     `json:"patientGender"`
	PatientBloodGroup *patient.BloodGroup `json:"patientBloodGroup"`
}

// PatientView is a prescription as an OTP-verified patient sees it: the
// row joined with the prescribing doctor's identity.
type PatientView struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"fileName"`
	UploadedAt   time.Time `json:"uploadedAt"`
	DoctorName   string    `json:"doctorName"`
	DoctorEmail  string    `json:"doctorEmail"`
	PatientName  string    `json:"patientName"`
	PatientEmail string    `json:"patientEmail"`
}
