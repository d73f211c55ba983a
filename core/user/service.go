package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/graderly/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	// Repository is the credential store.
	// CreateUser must enforce email uniqueness at write time and return ErrEmailExists on duplicates.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
	}

	Service struct {
		repo       Repository
		auth       *Authenticator
		validator  *core.Validator
		bcryptCost int
		dummyHash  []byte // compared against on unknown emails, at the configured cost
	}
)

func NewService(repo Repository, auth *Authenticator, validator *core.Validator, conf *core.Config) *Service {
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), conf.Security.BcryptCost)
	return &Service{
		repo:       repo,
		auth:       auth,
		validator:  validator,
		bcryptCost: conf.Security.BcryptCost,
		dummyHash:  dummyHash,
	}
}

func emailConflict(err error) error {
	return core.NewConflictError(err, core.FieldError{Field: "email", Error: err.Error()})
}

// Register creates a User after validating nu.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validator); err != nil {
		return User{}, err
	}

	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, emailConflict(ErrEmailExists)
	} else if err != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password, svc.bcryptCost); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists { // lost a race with a concurrent registration
			return User{}, emailConflict(ErrEmailExists)
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Login checks the credentials and issues a session token.
// Unknown emails and wrong passwords both yield core.ErrAuthenticationFailed.
func (svc *Service) Login(ctx context.Context, lc LoginCredentials) (Session, error) {
	if err := lc.Validate(svc.validator); err != nil {
		return Session{}, err
	}

	usr, err := svc.repo.GetUserByEmail(ctx, lc.Email)
	if err != nil {
		if err == ErrNotFound {
			// same bcrypt work as a wrong password, so both take as long
			_ = bcrypt.CompareHashAndPassword(svc.dummyHash, []byte(lc.Password))
			return Session{}, core.ErrAuthenticationFailed
		}
		return Session{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(lc.Password); err != nil {
		return Session{}, core.ErrAuthenticationFailed
	}

	token, err := svc.auth.IssueToken(usr)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: usr.Profile()}, nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetPassword replaces the password of the user identified by email.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) (User, error) {
	if pwd == "" {
		return User{}, core.NewValidationError(
			errors.New("invalid input"),
			core.FieldError{Field: "password", Error: "this field is required"},
		)
	}
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd, svc.bcryptCost); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
