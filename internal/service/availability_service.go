package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/cache"
	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/schedule"
	"github.com/smartclinic/clinic-api/pkg/metrics"
)

// AvailabilityService computes the free slots of a doctor's day:
// the recurring template minus the labels consumed by bookings.
type AvailabilityService struct {
	doctorRepo doctor.Repository
	apptRepo   appointment.Repository
	cache      *cache.AvailabilityCache
	// strictOverlap switches booked-slot removal from exact label match
	// to interval overlap. Exact match is the historical behavior: a
	// template slot that overlaps a booking without matching its label
	// stays visible. See DESIGN.md.
	strictOverlap bool
	collector     *metrics.Collector
	log           *zap.Logger
}

func NewAvailabilityService(
	doctorRepo doctor.Repository,
	apptRepo appointment.Repository,
	availCache *cache.AvailabilityCache,
	strictOverlap bool,
	collector *metrics.Collector,
	log *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		doctorRepo:    doctorRepo,
		apptRepo:      apptRepo,
		cache:         availCache,
		strictOverlap: strictOverlap,
		collector:     collector,
		log:           log,
	}
}

// ComputeAvailability returns the doctor's free slot labels for the day,
// ordered ascending by start time. A missing doctor, empty template or
// zero inputs all degrade to an empty list; only storage faults surface
// as errors.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	if doctorID == uuid.Nil || day.IsZero() {
		return []string{}, nil
	}

	if slots, ok := s.cache.Get(ctx, doctorID, day); ok {
		s.countCache("hit")
		return slots, nil
	}
	s.countCache("miss")

	doc, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("fetching doctor template: %w", err)
	}
	if len(doc.AvailableSlots) == 0 {
		return []string{}, nil
	}

	dayStart, dayEnd := schedule.DayRange(day)
	booked, err := s.apptRepo.FindByDoctorAndRange(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("fetching booked appointments: %w", err)
	}

	bookedLabels := make(map[string]struct{}, len(booked))
	bookedIntervals := make([]schedule.SlotLabel, 0, len(booked))
	for _, a := range booked {
		start := a.ScheduledAt.In(day.Location())
		label := schedule.LabelFor(start, start.Add(schedule.SlotDuration))
		bookedLabels[label] = struct{}{}
		if iv, err := schedule.Parse(label); err == nil {
			bookedIntervals = append(bookedIntervals, iv)
		}
	}

	free := make([]string, 0, len(doc.AvailableSlots))
	for _, raw := range doc.AvailableSlots {
		if s.consumed(raw, bookedLabels, bookedIntervals) {
			continue
		}
		free = append(free, raw)
	}

	schedule.SortLabels(free)

	s.cache.Put(ctx, doctorID, day, free)
	return free, nil
}

func (s *AvailabilityService) countCache(result string) {
	if s.collector != nil {
		s.collector.AvailabilityCacheHits.WithLabelValues(result).Inc()
	}
}

func (s *AvailabilityService) consumed(raw string, bookedLabels map[string]struct{}, bookedIntervals []schedule.SlotLabel) bool {
	norm := schedule.Normalize(raw)
	if _, ok := bookedLabels[norm]; ok {
		return true
	}

	if s.strictOverlap {
		slot, err := schedule.Parse(norm)
		if err != nil {
			return false // unparsable labels fall back to exact match only
		}
		for _, iv := range bookedIntervals {
			if slot.Overlaps(iv) {
				return true
			}
		}
	}

	return false
}
