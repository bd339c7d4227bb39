package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/patient"
	"github.com/smartclinic/clinic-api/pkg/auth"
)

// AdminRepository is the credential store for back-office accounts.
type AdminRepository interface {
	Create(ctx context.Context, a *domain.Admin) error
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

type AuthService struct {
	adminRepo   AdminRepository
	doctorRepo  doctor.Repository
	patientRepo patient.Repository
	jwtManager  *auth.JWTManager
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewAuthService(adminRepo AdminRepository, doctorRepo doctor.Repository, patientRepo patient.Repository, jwtManager *auth.JWTManager, auditSvc *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{
		adminRepo:   adminRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		jwtManager:  jwtManager,
		auditSvc:    auditSvc,
		log:         log,
	}
}

// Login authenticates a principal of the given role. Admins log in by
// username, doctors and patients by email.
func (s *AuthService) Login(ctx context.Context, role domain.Role, identifier, password, ip string) (*domain.TokenPair, error) {
	claims, hash, err := s.lookupPrincipal(ctx, role, identifier)
	if err != nil {
		// Burn a hash so the unknown-account path takes as long as a
		// password mismatch.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("role", string(role)),
			zap.String("identifier", identifier),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      claims.SubjectID,
		ActorRole:    string(role),
		Action:       "login",
		ResourceType: string(role),
		ResourceID:   claims.SubjectID.String(),
		IPAddress:    ip,
	})

	return pair, nil
}

// RefreshToken issues a fresh token pair given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate the account still exists before minting new tokens.
	switch claims.Role {
	case domain.RoleDoctor:
		if claims.DoctorID == nil {
			return nil, ErrInvalidCredentials
		}
		if ok, err := s.doctorRepo.Exists(ctx, *claims.DoctorID); err != nil || !ok {
			return nil, ErrInvalidCredentials
		}
	case domain.RolePatient:
		if claims.PatientID == nil {
			return nil, ErrInvalidCredentials
		}
		if ok, err := s.patientRepo.Exists(ctx, *claims.PatientID); err != nil || !ok {
			return nil, ErrInvalidCredentials
		}
	case domain.RoleAdmin:
		// Admin accounts are not deactivated out of band.
	default:
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claims)
}

func (s *AuthService) lookupPrincipal(ctx context.Context, role domain.Role, identifier string) (*domain.Claims, string, error) {
	switch role {
	case domain.RoleAdmin:
		a, err := s.adminRepo.GetByUsername(ctx, identifier)
		if err != nil {
			return nil, "", err
		}
		return &domain.Claims{SubjectID: a.ID, Role: domain.RoleAdmin}, a.PasswordHash, nil
	case domain.RoleDoctor:
		d, err := s.doctorRepo.GetByEmail(ctx, identifier)
		if err != nil {
			return nil, "", err
		}
		id := d.ID
		return &domain.Claims{SubjectID: d.ID, Email: d.Email, Role: domain.RoleDoctor, DoctorID: &id}, d.PasswordHash, nil
	case domain.RolePatient:
		p, err := s.patientRepo.GetByEmail(ctx, identifier)
		if err != nil {
			return nil, "", err
		}
		id := p.ID
		return &domain.Claims{SubjectID: p.ID, Email: p.Email, Role: domain.RolePatient, PatientID: &id}, p.PasswordHash, nil
	}
	return nil, "", fmt.Errorf("unknown role %q", role)
}
