package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a registration request
type RegisterUserMessage struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate runs field level validation rules. Errors aggregate per field.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&e.MobileNumber, validation.Required, validation.Length(1, 15), validation.By(ValidMobileNumber)),
		validation.Field(&e.Password, validation.Required, validation.Length(MinPasswordLength, 100)),
	)
}

// ValidMobileNumber is an ozzo rule checking the value parses as a possible
// phone number. Numbers without a country prefix are tried with a leading +.
func ValidMobileNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	raw := s
	if !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}

	num, err := phonenumbers.Parse(raw, "ZZ")
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return fmt.Errorf("must be a valid mobile number")
	}

	return nil
}

// RegisterUserHandler creates new accounts
type RegisterUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewRegisterUserHandler creates a handler with sane defaults
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute registers a new user and returns the persisted record. The
// password is hashed before storage and the hash never appears in the
// returned projection. No profile is created at this stage.
func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Courtesy pre-checks so conflicts aggregate per field. The unique
		// constraints below remain the authoritative guard under races.
		verrs := validation.Errors{}
		for column, value := range map[string]string{
			"username":      event.Username,
			"email":         event.Email,
			"mobile_number": event.MobileNumber,
		} {
			taken, err := h.repo.Users().IdentifierTakenTx(ctx, tx, column, value, uuid.Nil)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check uniqueness")
			}
			if taken {
				verrs[column] = fmt.Errorf("a user with this %s already exists", strings.ReplaceAll(column, "_", " "))
			}
		}
		if len(verrs) > 0 {
			return verrs
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Username = event.Username
		user.Email = event.Email
		user.MobileNumber = event.MobileNumber
		user.PasswordHash = hash

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return translateUniqueViolation(err)
		}

		return nil
	})

	if err != nil {
		var verrs validation.Errors
		if goerrors.As(err, &verrs) {
			return nil, verrs
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}
