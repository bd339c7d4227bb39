package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/smartclinic/clinic-api/internal/config"
	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/patient"
	"github.com/smartclinic/clinic-api/pkg/auth"
)

type fakeAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*domain.Admin
}

func (r *fakeAdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.admins == nil {
		r.admins = make(map[string]*domain.Admin)
	}
	r.admins[a.Username] = a
	return nil
}

func (r *fakeAdminRepo) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	return string(hash)
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeDoctorRepo, *fakePatientRepo) {
	t.Helper()

	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinic-api-test",
	})

	doctorRepo := newFakeDoctorRepo()
	patientRepo := newFakePatientRepo()
	svc := NewAuthService(&fakeAdminRepo{}, doctorRepo, patientRepo, jwtManager, newTestAuditService(), zap.NewNop())
	return svc, doctorRepo, patientRepo
}

func TestLoginPatient(t *testing.T) {
	svc, _, patientRepo := newAuthFixture(t)
	patientRepo.add(&patient.Patient{
		Name:         "Jo Ray",
		Email:        "jo@clinic.test",
		PasswordHash: mustHash(t, "open-sesame"),
	})

	pair, err := svc.Login(context.Background(), domain.RolePatient, "jo@clinic.test", "open-sesame", "127.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if pair.TokenType != "Bearer" {
		t.Fatalf("token type = %q, want Bearer", pair.TokenType)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, doctorRepo, _ := newAuthFixture(t)
	doctorRepo.add(&doctor.Doctor{
		Name:         "Dr. Key",
		Email:        "key@clinic.test",
		PasswordHash: mustHash(t, "right"),
	})

	_, err := svc.Login(context.Background(), domain.RoleDoctor, "key@clinic.test", "wrong", "127.0.0.1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), domain.RolePatient, "ghost@clinic.test", "whatever", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc, _, patientRepo := newAuthFixture(t)
	patientRepo.add(&patient.Patient{
		Name:         "Kim Soto",
		Email:        "kim@clinic.test",
		PasswordHash: mustHash(t, "open-sesame"),
	})

	pair, err := svc.Login(context.Background(), domain.RolePatient, "kim@clinic.test", "open-sesame", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("empty refreshed access token")
	}

	// An access token must not pass as a refresh token.
	if _, err := svc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("access-as-refresh: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshTokenRejectsDeletedAccount(t *testing.T) {
	svc, _, patientRepo := newAuthFixture(t)
	p := patientRepo.add(&patient.Patient{
		Name:         "Lee Park",
		Email:        "lee@clinic.test",
		PasswordHash: mustHash(t, "open-sesame"),
	})

	pair, err := svc.Login(context.Background(), domain.RolePatient, "lee@clinic.test", "open-sesame", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	patientRepo.mu.Lock()
	delete(patientRepo.patients, p.ID)
	patientRepo.mu.Unlock()

	if _, err := svc.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
