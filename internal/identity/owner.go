package identity

import (
	"bitrook/stashbin-api/internal/model"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OwnerKind tags the variants of Owner.
type OwnerKind int

const (
	OwnerNone OwnerKind = iota
	OwnerPrincipal
	OwnerGuest
)

// Owner is a resolved owner of a request or record. Exactly one variant is
// populated: PrincipalID for OwnerPrincipal, Guest for OwnerGuest.
type Owner struct {
	Kind        OwnerKind
	PrincipalID string
	Guest       *model.Guest
}

// Ownable is any persisted record carrying the two mutually exclusive owner
// references.
type Ownable interface {
	OwnerUserID() *string
	OwnerGuestID() *string
	SetOwnerUserID(id *string)
	SetOwnerGuestID(id *string)
}

// Resolver attaches, checks and migrates ownership on Ownable records
// without knowing anything else about them. Column names come from the
// manager's config so one resolver spans every owned table that follows the
// convention.
type Resolver struct {
	db     *gorm.DB
	guests *Manager
	auth   AuthContext
	conf   Config
}

func NewResolver(db *gorm.DB, guests *Manager) *Resolver {
	return &Resolver{
		db:     db,
		guests: guests,
		auth:   guests.auth,
		conf:   guests.conf,
	}
}

// Assign stamps the current request owner onto res: the logged-in user when
// there is one, otherwise the request's guest identity (created on demand,
// so this never fails for lack of an owner). The other reference is always
// cleared, which keeps the two from ever being set together. With persist
// unset the fields are only attached in memory for the caller to save along
// with its own changes.
func (r *Resolver) Assign(c *gin.Context, res Ownable, persist bool) error {
	if id, ok := r.auth.CurrentPrincipal(c); ok {
		res.SetOwnerUserID(&id)
		res.SetOwnerGuestID(nil)
	} else {
		g, err := r.guests.GetOrCreate(c)
		if err != nil {
			return err
		}

		gid := g.ID
		res.SetOwnerGuestID(&gid)
		res.SetOwnerUserID(nil)
	}

	if !persist {
		return nil
	}

	return r.persistOwner(res)
}

// Unassign clears both owner references unconditionally.
func (r *Resolver) Unassign(res Ownable, persist bool) error {
	res.SetOwnerUserID(nil)
	res.SetOwnerGuestID(nil)

	if !persist {
		return nil
	}

	return r.persistOwner(res)
}

// IsOwnedByCurrent reports whether res belongs to whoever is making this
// request. An anonymous caller that never received a guest identity owns
// nothing, and an unowned record is owned by nobody.
func (r *Resolver) IsOwnedByCurrent(c *gin.Context, res Ownable) (bool, error) {
	if id, ok := r.auth.CurrentPrincipal(c); ok {
		return res.OwnerUserID() != nil && *res.OwnerUserID() == id, nil
	}

	g, err := r.guests.Get(c, false, false)
	if err != nil {
		return false, err
	}
	if g == nil {
		return false, nil
	}

	return res.OwnerGuestID() != nil && *res.OwnerGuestID() == g.ID, nil
}

// ScopeForCurrent returns a query scope restricting to records owned by the
// current request owner. The scope composes with any other conditions the
// caller chains on. Anonymous callers get a guest identity on demand so a
// first-time visitor sees a well-defined empty set instead of an error.
func (r *Resolver) ScopeForCurrent(c *gin.Context) (func(*gorm.DB) *gorm.DB, error) {
	if id, ok := r.auth.CurrentPrincipal(c); ok {
		col := r.conf.PrincipalColumn
		return func(tx *gorm.DB) *gorm.DB {
			return tx.Where(col+" = ?", id)
		}, nil
	}

	g, err := r.guests.GetOrCreate(c)
	if err != nil {
		return nil, err
	}

	col := r.conf.GuestColumn
	gid := g.ID

	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(col+" = ?", gid)
	}, nil
}

// MigrateGuestToPrincipal hands every record of the given model owned by the
// request's pre-login guest over to the now logged-in user, as one bulk
// statement so readers never observe a half-migrated set. Reports whether
// anything moved; calling without an authenticated user or without a guest
// is a no-op. The guest identity itself is left alone so callers can still
// inspect it before terminating it.
func (r *Resolver) MigrateGuestToPrincipal(c *gin.Context, mdl any) (bool, error) {
	id, ok := r.auth.CurrentPrincipal(c)
	if !ok {
		return false, nil
	}

	g, err := r.guests.Get(c, false, true)
	if err != nil {
		return false, err
	}
	if g == nil {
		return false, nil
	}

	res := r.db.
		Model(mdl).
		Where(r.conf.GuestColumn+" = ?", g.ID).
		Updates(map[string]any{
			r.conf.PrincipalColumn: id,
			r.conf.GuestColumn:     nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to migrate guest records, %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// CreateWithOwnership computes the owner fields and inserts res in a single
// write.
func (r *Resolver) CreateWithOwnership(c *gin.Context, res Ownable) error {
	if err := r.Assign(c, res, false); err != nil {
		return err
	}

	if err := r.db.Create(res).Error; err != nil {
		return fmt.Errorf("failed to create owned record, %w", err)
	}

	return nil
}

// UpdateOrCreateWithOwnership upserts dest by the match attributes scoped to
// the current owner, applying updates plus the owner fields in the same
// write. The owner is part of the match so one owner's upsert can never
// steal another owner's row.
func (r *Resolver) UpdateOrCreateWithOwnership(c *gin.Context, dest Ownable, match, updates map[string]any) error {
	if err := r.Assign(c, dest, false); err != nil {
		return err
	}

	where := map[string]any{
		r.conf.PrincipalColumn: dest.OwnerUserID(),
		r.conf.GuestColumn:     dest.OwnerGuestID(),
	}
	for k, v := range match {
		where[k] = v
	}

	assign := make(map[string]any, len(updates))
	for k, v := range updates {
		assign[k] = v
	}

	if err := r.db.Where(where).Assign(assign).FirstOrCreate(dest).Error; err != nil {
		return fmt.Errorf("failed to upsert owned record, %w", err)
	}

	return nil
}

// Owner resolves whichever owner reference is set on res. The guest side is
// loaded from storage; a dangling reference (the guest was reclaimed)
// resolves to nobody.
func (r *Resolver) Owner(res Ownable) (Owner, error) {
	if id := res.OwnerUserID(); id != nil {
		return Owner{Kind: OwnerPrincipal, PrincipalID: *id}, nil
	}

	if gid := res.OwnerGuestID(); gid != nil {
		var g model.Guest

		err := r.db.Where("id = ?", *gid).First(&g).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return Owner{}, nil
			}
			return Owner{}, fmt.Errorf("failed to load guest owner, %w", err)
		}

		return Owner{Kind: OwnerGuest, Guest: &g}, nil
	}

	return Owner{}, nil
}

func (r *Resolver) persistOwner(res Ownable) error {
	err := r.db.
		Model(res).
		Updates(map[string]any{
			r.conf.PrincipalColumn: res.OwnerUserID(),
			r.conf.GuestColumn:     res.OwnerGuestID(),
		}).
		Error
	if err != nil {
		return fmt.Errorf("failed to persist owner fields, %w", err)
	}

	return nil
}
