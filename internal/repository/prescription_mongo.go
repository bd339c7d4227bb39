package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartclinic/clinic-api/internal/domain/prescription"
)

const prescriptionCollection = "prescriptions"

type PrescriptionMongoRepository struct {
	coll *mongo.Collection
}

func NewPrescriptionMongoRepository(db *mongo.Database) (*PrescriptionMongoRepository, error) {
	r := &PrescriptionMongoRepository{coll: db.Collection(prescriptionCollection)}
	if err := r.ensureIndexes(); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureIndexes creates indexes for fields frequently used in queries.
// The unique appointment_id index enforces one prescription per visit.
func (r *PrescriptionMongoRepository) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "appointment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "patient_name", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *PrescriptionMongoRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	p.CreatedAt = time.Now().UTC()

	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return prescription.ErrAlreadyIssued
		}
		return fmt.Errorf("inserting prescription: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (r *PrescriptionMongoRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.coll.FindOne(ctx, bson.M{"appointment_id": appointmentID.String()}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("finding prescription: %w", err)
	}
	return &p, nil
}

func (r *PrescriptionMongoRepository) FindByPatientName(ctx context.Context, patientName string) ([]*prescription.Prescription, error) {
	cur, err := r.coll.Find(ctx, bson.M{"patient_name": patientName},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("finding prescriptions: %w", err)
	}
	defer cur.Close(ctx)

	var list []*prescription.Prescription
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decoding prescriptions: %w", err)
	}
	return list, nil
}

// Compile-time check
var _ prescription.Repository = (*PrescriptionMongoRepository)(nil)
