package identity

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the store for the optional 1:1 profile extension records
type Profiles interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)
}

type profiles struct {
	db *bun.DB
}

var _ Profiles = (*profiles)(nil)

// NewProfilesRepository creates the Profiles store
func NewProfilesRepository(db *bun.DB) Profiles {
	return &profiles{db: db}
}

func (p *profiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return p.GetByUserIDTx(ctx, p.db, userID)
}

func (p *profiles) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (p *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	prepareProfileDefaults(record)

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (p *profiles) UpdateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	if _, err := tx.NewUpdate().
		Model(record).
		OmitZero().
		ExcludeColumn("date_joined").
		WherePK().
		Exec(ctx); err != nil {
		return nil, err
	}

	return p.GetByUserIDTx(ctx, tx, record.UserID)
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.DateJoined == nil {
		now := time.Now()
		record.DateJoined = &now
	}
	record.IsActive = true
}
