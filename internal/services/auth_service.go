package services

import (
	"errors"
	"fmt"
	"strings"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/repositories"
	"siteworks_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors for Auth ---
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrAuthValidation     = errors.New("auth data validation error")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- Auth DTOs ---

type RegisterWorkerRequest struct {
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required,min=8"`
	FullName       string  `json:"full_name" binding:"required"`
	PhoneNumber    *string `json:"phone_number"`
	Role           string  `json:"role"`            // Defaults to "worker" when empty.
	EmploymentType string  `json:"employment_type"` // Defaults to "daily_worker" when empty.
	DailyWage      *string `json:"daily_wage"`
	OrganizationID *string `json:"organization_id"`
}

type AuthResponse struct {
	Worker       *models.Worker `json:"worker"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterWorker(req RegisterWorkerRequest) (*models.Worker, error)
	Login(req models.Credentials) (*AuthResponse, error)
	GetProfile(userID string) (*models.Worker, error)
}

// --- authService Implementation ---
type authService struct {
	workerRepo repositories.WorkerRepository
	db         repositories.DB
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(wr repositories.WorkerRepository, db repositories.DB) AuthService {
	return &authService{workerRepo: wr, db: db}
}

// RegisterWorker creates a worker profile with hashed credentials and
// validated employment metadata.
func (s *authService) RegisterWorker(req RegisterWorkerRequest) (*models.Worker, error) {
	role := models.RoleWorker
	if strings.TrimSpace(req.Role) != "" {
		role = models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrAuthValidation, req.Role)
		}
	}

	employmentType := models.EmploymentDailyWorker
	if strings.TrimSpace(req.EmploymentType) != "" {
		employmentType = models.EmploymentType(strings.ToLower(strings.TrimSpace(req.EmploymentType)))
		if !employmentType.IsValid() {
			return nil, fmt.Errorf("%w: unknown employment type %q", ErrAuthValidation, req.EmploymentType)
		}
	}

	var dailyWage *decimal.Decimal
	if req.DailyWage != nil && strings.TrimSpace(*req.DailyWage) != "" {
		wage, err := decimal.NewFromString(strings.TrimSpace(*req.DailyWage))
		if err != nil {
			return nil, fmt.Errorf("%w: daily_wage must be a number", ErrAuthValidation)
		}
		if wage.IsNegative() {
			return nil, fmt.Errorf("%w: daily_wage cannot be negative", ErrAuthValidation)
		}
		dailyWage = &wage
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	worker := &models.Worker{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(hashedPasswordBytes),
		FullName:       strings.TrimSpace(req.FullName),
		PhoneNumber:    req.PhoneNumber,
		Role:           role,
		EmploymentType: employmentType,
		DailyWage:      dailyWage,
		OrganizationID: req.OrganizationID,
		IsActive:       true,
	}

	created, err := s.workerRepo.CreateWorker(s.db, worker)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailExists, worker.Email)
		}
		return nil, fmt.Errorf("failed to register worker: %w", err)
	}
	created.PasswordHash = "" // Never return the hash
	return created, nil
}

// Login verifies credentials and issues access/refresh tokens whose claims
// carry the role and organization used for request-time scoping.
func (s *authService) Login(req models.Credentials) (*AuthResponse, error) {
	worker, err := s.workerRepo.GetWorkerByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !worker.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(worker.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateAccessToken(worker.ID, string(worker.Role), worker.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refreshToken, err := utils.GenerateRefreshToken(worker.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	worker.PasswordHash = ""
	return &AuthResponse{
		Worker:       worker,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// GetProfile returns the caller's own worker profile.
func (s *authService) GetProfile(userID string) (*models.Worker, error) {
	worker, err := s.workerRepo.GetWorkerByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: worker ID %s", ErrWorkerNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get worker profile: %w", err)
	}
	worker.PasswordHash = ""
	return worker, nil
}
