package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfilePayload is the nested partial profile section of an update.
// Pointer fields distinguish "absent" from "set to empty".
type ProfilePayload struct {
	Fullname       *string        `json:"fullname,omitempty"`
	Address        map[string]any `json:"address,omitempty"`
	City           *string        `json:"city,omitempty"`
	State          *string        `json:"state,omitempty"`
	Country        *string        `json:"country,omitempty"`
	ZipCode        *string        `json:"zip_code,omitempty"`
	AcceptedMethod *string        `json:"accepted_method,omitempty"`
}

// UpdateUserMessage carries a partial user+profile update. Absent fields
// retain their prior values; this is patch semantics, not replace.
type UpdateUserMessage struct {
	UserID       uuid.UUID       `json:"-"`
	Username     *string         `json:"username,omitempty"`
	Email        *string         `json:"email,omitempty"`
	MobileNumber *string         `json:"mobile_number,omitempty"`
	Profile      *ProfilePayload `json:"profile,omitempty"`
}

func (e UpdateUserMessage) Type() string { return "user.update" }

// Validate checks only the supplied fields; nil pointers are skipped
func (e UpdateUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.NilOrNotEmpty, validation.Length(1, 150)),
		validation.Field(&e.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
		validation.Field(&e.MobileNumber, validation.NilOrNotEmpty, validation.Length(1, 15), validation.By(ValidMobileNumber)),
	)
}

// UpdateUserHandler applies partial updates spanning the users and
// user_profiles tables as one transaction
type UpdateUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewUpdateUserHandler creates a handler with sane defaults
func NewUpdateUserHandler(repo RepositoryManager) *UpdateUserHandler {
	return &UpdateUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler
func (h *UpdateUserHandler) WithLogger(logger Logger) *UpdateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute applies the update and returns the fully resolved user+profile
// view. Identity and profile changes commit together or not at all: any
// validation or store failure rolls back the whole operation before a single
// field is persisted.
func (h *UpdateUserHandler) Execute(ctx context.Context, event UpdateUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateUserHandler) execute(ctx context.Context, event UpdateUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	var view *User
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load user for update")
		}

		if err := h.checkUniqueness(ctx, tx, user.ID, event); err != nil {
			return err
		}

		if err := h.applyUserFields(ctx, tx, user, event); err != nil {
			return err
		}

		if event.Profile != nil {
			if err := h.applyProfileFields(ctx, tx, user.ID, event.Profile); err != nil {
				return err
			}
		}

		view, err = h.repo.Users().GetWithProfileTx(ctx, tx, user.ID)
		return err
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

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user update transaction failed")
	}

	return view, nil
}

// checkUniqueness pre-checks supplied identifier fields against all other
// users so conflicts surface as aggregated field errors. The table's unique
// constraints stay authoritative for races between check and write.
func (h *UpdateUserHandler) checkUniqueness(ctx context.Context, tx bun.IDB, selfID uuid.UUID, event UpdateUserMessage) error {
	supplied := map[string]*string{
		"username":      event.Username,
		"email":         event.Email,
		"mobile_number": event.MobileNumber,
	}

	verrs := validation.Errors{}
	for column, value := range supplied {
		if value == nil {
			continue
		}
		taken, err := h.repo.Users().IdentifierTakenTx(ctx, tx, column, *value, selfID)
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

	return nil
}

func (h *UpdateUserHandler) applyUserFields(ctx context.Context, tx bun.IDB, user *User, event UpdateUserMessage) error {
	patch := &User{ID: user.ID}
	changed := false

	if event.Username != nil {
		patch.Username = *event.Username
		changed = true
	}
	if event.Email != nil {
		patch.Email = *event.Email
		changed = true
	}
	if event.MobileNumber != nil {
		patch.MobileNumber = *event.MobileNumber
		changed = true
	}

	if !changed {
		return nil
	}

	now := time.Now()
	patch.UpdatedAt = &now

	if _, err := h.repo.Users().UpdateFieldsTx(ctx, tx, patch); err != nil {
		return translateUniqueViolation(err)
	}

	return nil
}

// applyProfileFields patches the existing profile or lazily creates one
// populated only with the supplied fields
func (h *UpdateUserHandler) applyProfileFields(ctx context.Context, tx bun.IDB, userID uuid.UUID, payload *ProfilePayload) error {
	existing, err := h.repo.Profiles().GetByUserIDTx(ctx, tx, userID)
	if err != nil && !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load profile for update")
	}

	record := &Profile{UserID: userID}
	if existing != nil {
		record.ID = existing.ID
	}

	if payload.Fullname != nil {
		record.Fullname = *payload.Fullname
	}
	if payload.Address != nil {
		record.Address = payload.Address
	}
	if payload.City != nil {
		record.City = *payload.City
	}
	if payload.State != nil {
		record.State = *payload.State
	}
	if payload.Country != nil {
		record.Country = *payload.Country
	}
	if payload.ZipCode != nil {
		record.ZipCode = *payload.ZipCode
	}
	if payload.AcceptedMethod != nil {
		record.AcceptedMethod = *payload.AcceptedMethod
	}

	if existing == nil {
		_, err = h.repo.Profiles().CreateTx(ctx, tx, record)
	} else {
		_, err = h.repo.Profiles().UpdateTx(ctx, tx, record)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist profile update")
	}

	return nil
}
