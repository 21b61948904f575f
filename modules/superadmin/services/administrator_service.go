package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/orderly-pos/orderly/modules/superadmin/domain/entities/administrator"
	tenancyservices "github.com/orderly-pos/orderly/modules/tenancy/services"
	"github.com/orderly-pos/orderly/pkg/repo"
)

const minAdministratorPasswordLength = 12

var validate = validator.New()

var (
	ErrAdministratorExists  = errors.New("an administrator with this email already exists")
	ErrInvalidAdministrator = errors.New("administrator needs a valid email, a name and a password of at least 12 characters")
)

// AdministratorService manages platform operators. It is driven from the
// command line; there is no HTTP surface for it.
type AdministratorService struct {
	repo   administrator.Repository
	hasher tenancyservices.PasswordHasher
}

func NewAdministratorService(repo administrator.Repository, hasher tenancyservices.PasswordHasher) *AdministratorService {
	return &AdministratorService{repo: repo, hasher: hasher}
}

func (s *AdministratorService) Create(ctx context.Context, email, name, password string) (*administrator.Administrator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if validate.Var(email, "required,email") != nil || name == "" || len(password) < minAdministratorPasswordLength {
		return nil, ErrInvalidAdministrator
	}
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, administrator.New(email, name, hash))
	if repo.IsConflict(err, "email") {
		return nil, ErrAdministratorExists
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create administrator")
	}
	return created, nil
}

func (s *AdministratorService) SetActive(ctx context.Context, email string, active bool) error {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return errors.Wrap(err, "failed to find administrator")
	}
	return s.repo.SetActive(ctx, a.ID(), active)
}
