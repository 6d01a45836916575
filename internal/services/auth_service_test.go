package services

import (
	"errors"
	"testing"

	"siteworks_backend/internal/models"
)

func newAuthFixture() (*fakeWorkerRepo, AuthService) {
	workerRepo := newFakeWorkerRepo()
	return workerRepo, NewAuthService(workerRepo, fakeDB{})
}

func TestRegisterWorkerDefaults(t *testing.T) {
	_, service := newAuthFixture()

	worker, err := service.RegisterWorker(RegisterWorkerRequest{
		Email:    "Kim@Example.com",
		Password: "super-secret",
		FullName: "Kim Worker",
	})
	if err != nil {
		t.Fatalf("RegisterWorker returned error: %v", err)
	}
	if worker.Email != "kim@example.com" {
		t.Errorf("email = %q, want lowercased", worker.Email)
	}
	if worker.Role != models.RoleWorker {
		t.Errorf("role = %s, want default worker", worker.Role)
	}
	if worker.EmploymentType != models.EmploymentDailyWorker {
		t.Errorf("employment type = %s, want default daily_worker", worker.EmploymentType)
	}
	if worker.PasswordHash != "" {
		t.Error("password hash must never be returned")
	}
	if !worker.IsActive {
		t.Error("new worker should be active")
	}
}

func TestRegisterWorkerValidation(t *testing.T) {
	_, service := newAuthFixture()

	base := RegisterWorkerRequest{
		Email:    "kim@example.com",
		Password: "super-secret",
		FullName: "Kim Worker",
	}

	bad := base
	bad.Role = "owner"
	if _, err := service.RegisterWorker(bad); !errors.Is(err, ErrAuthValidation) {
		t.Errorf("bad role error = %v, want ErrAuthValidation", err)
	}

	bad = base
	bad.EmploymentType = "apprentice"
	if _, err := service.RegisterWorker(bad); !errors.Is(err, ErrAuthValidation) {
		t.Errorf("bad employment type error = %v, want ErrAuthValidation", err)
	}

	bad = base
	bad.DailyWage = strPtr("-100")
	if _, err := service.RegisterWorker(bad); !errors.Is(err, ErrAuthValidation) {
		t.Errorf("negative wage error = %v, want ErrAuthValidation", err)
	}
}

func TestRegisterWorkerDuplicateEmail(t *testing.T) {
	_, service := newAuthFixture()

	req := RegisterWorkerRequest{
		Email:    "kim@example.com",
		Password: "super-secret",
		FullName: "Kim Worker",
	}
	if _, err := service.RegisterWorker(req); err != nil {
		t.Fatalf("first RegisterWorker returned error: %v", err)
	}
	if _, err := service.RegisterWorker(req); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email error = %v, want ErrEmailExists", err)
	}
}

func TestLogin(t *testing.T) {
	_, service := newAuthFixture()

	if _, err := service.RegisterWorker(RegisterWorkerRequest{
		Email:    "kim@example.com",
		Password: "super-secret",
		FullName: "Kim Worker",
		Role:     "site_manager",
	}); err != nil {
		t.Fatalf("RegisterWorker returned error: %v", err)
	}

	response, err := service.Login(models.Credentials{Email: "Kim@Example.com", Password: "super-secret"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if response.AccessToken == "" || response.RefreshToken == "" {
		t.Error("login should issue access and refresh tokens")
	}
	if response.Worker.PasswordHash != "" {
		t.Error("password hash must never be returned")
	}

	if _, err := service.Login(models.Credentials{Email: "kim@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := service.Login(models.Credentials{Email: "nobody@example.com", Password: "super-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDeactivatedWorker(t *testing.T) {
	workerRepo, service := newAuthFixture()

	created, err := service.RegisterWorker(RegisterWorkerRequest{
		Email:    "kim@example.com",
		Password: "super-secret",
		FullName: "Kim Worker",
	})
	if err != nil {
		t.Fatalf("RegisterWorker returned error: %v", err)
	}

	stored, err := workerRepo.GetWorkerByID(created.ID)
	if err != nil {
		t.Fatalf("worker lookup failed: %v", err)
	}
	stored.IsActive = false
	workerRepo.add(*stored)

	if _, err := service.Login(models.Credentials{Email: "kim@example.com", Password: "super-secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("deactivated login error = %v, want ErrInvalidCredentials", err)
	}
}

func TestGetProfile(t *testing.T) {
	_, service := newAuthFixture()

	created, err := service.RegisterWorker(RegisterWorkerRequest{
		Email:    "kim@example.com",
		Password: "super-secret",
		FullName: "Kim Worker",
	})
	if err != nil {
		t.Fatalf("RegisterWorker returned error: %v", err)
	}

	profile, err := service.GetProfile(created.ID)
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if profile.ID != created.ID || profile.PasswordHash != "" {
		t.Errorf("profile = %+v, want matching ID and no hash", profile)
	}

	if _, err := service.GetProfile("missing"); !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("unknown profile error = %v, want ErrWorkerNotFound", err)
	}
}
