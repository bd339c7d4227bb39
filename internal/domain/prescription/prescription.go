package prescription

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prescription is stored as a document rather than a relational row:
// its shape varies by medication and it is written once per visit, read
// by id. Appointment and patient references are kept as plain values,
// not foreign keys.
type Prescription struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientName string             `bson:"patient_name" json:"patient_name"`
	// AppointmentID is the canonical uuid string form; BSON has no
	// native uuid type worth the codec ceremony.
	AppointmentID string    `bson:"appointment_id" json:"appointment_id"`
	Medication    string    `bson:"medication" json:"medication"`
	Dosage        string    `bson:"dosage" json:"dosage"`
	DoctorNotes   string    `bson:"doctor_notes,omitempty" json:"doctor_notes,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

type IssuePrescriptionCommand struct {
	PatientName   string
	AppointmentID uuid.UUID
	Medication    string
	Dosage        string
	DoctorNotes   string
}
