package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO prescription (id, file_name, file_path, doctor_id, patient_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING uploaded_at`,
		p.ID, p.FileName, p.FilePath, p.DoctorID, p.PatientID).Scan(&p.UploadedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.pool.QueryRow(ctx, `
		SELECT id, file_name, file_path, uploaded_at, doctor_id, patient_id
		FROM prescription WHERE id = $1`, id).
		Scan(&p.ID, &p.FileName, &p.FilePath, &p.UploadedAt, &p.DoctorID, &p.PatientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]DoctorView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pr.id, pr.file_name, pr.uploaded_at,
		       pa.name, pa.email, pa.phone, pa.age, pa.gender, pa.blood_group
		FROM prescription pr
		LEFT JOIN patient pa ON pa.id = pr.patient_id
		WHERE pr.doctor_id = $1
		ORDER BY pr.uploaded_at, pr.id`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []DoctorView{}
	for rows.Next() {
		var v DoctorView
		if err := rows.Scan(&v.ID, &v.FileName, &v.UploadedAt,
			&v.PatientName, &v.PatientEmail, &v.PatientPhone,
			&v.PatientAge, &v.PatientGender, &v.PatientBloodGroup); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]PatientView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pr.id, pr.file_name, pr.uploaded_at,
		       d.name, d.email, pa.name, pa.email
		FROM prescription pr
		JOIN doctor d ON d.id = pr.doctor_id
		JOIN patient pa ON pa.id = pr.patient_id
		WHERE pr.patient_id = $1
		ORDER BY pr.uploaded_at, pr.id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []PatientView{}
	for rows.Next() {
		var v PatientView
		if err := rows.Scan(&v.ID, &v.FileName, &v.UploadedAt,
			&v.DoctorName, &v.DoctorEmail, &v.PatientName, &v.PatientEmail); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
