// Package store persists members, day entries and users with gorm. It is the
// carpool.Storage implementation used by the services and the CLI.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carpool/internal/carpool"
	"carpool/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrMemberNotFound = errors.New("member not found")
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ carpool.Storage = (*Store)(nil)

func New(db *gorm.DB) *Store { return &Store{db: db, now: time.Now} }

// WithClock replaces the save timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Seed inserts configured members that are not registered yet and creates
// the admin account when it does not exist. Existing rows are left alone so
// activation changes survive restarts.
func (s *Store) Seed(ctx context.Context, members []carpool.Member, adminUser, adminHash string) error {
	db := s.db.WithContext(ctx)
	if len(members) > 0 {
		rows := make([]model.Member, 0, len(members))
		for _, m := range members {
			rows = append(rows, model.Member{Key: m.Key, Name: m.Name, Active: m.Active})
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("seed members: %w", err)
		}
	}

	if adminUser == "" {
		return nil
	}
	var n int64
	if err := db.Model(&model.User{}).Where("username = ?", adminUser).Count(&n).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := db.Create(&model.User{Username: adminUser, PasswordHash: adminHash, IsAdmin: true}).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("store.admin_seeded", "username", adminUser)
	return nil
}

// Members returns the registry ordered by key.
func (s *Store) Members(ctx context.Context) ([]carpool.Member, error) {
	var rows []model.Member
	if err := s.db.WithContext(ctx).Order("`key`").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]carpool.Member, len(rows))
	for i, r := range rows {
		out[i] = carpool.Member{Key: r.Key, Name: r.Name, Active: r.Active}
	}
	return out, nil
}

func (s *Store) SetMemberActive(ctx context.Context, key string, active bool) error {
	db := s.db.WithContext(ctx)
	var m model.Member
	if err := db.Where("`key` = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, key)
		}
		return fmt.Errorf("get member: %w", err)
	}
	if err := db.Model(&m).Update("active", active).Error; err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

// Get returns every entry whose stored day falls on day, whatever format it
// was written in.
func (s *Store) Get(ctx context.Context, day carpool.Day) ([]carpool.Entry, error) {
	rows, err := s.dayRows(s.db.WithContext(ctx), day)
	if err != nil {
		return nil, err
	}
	out := make([]carpool.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.toEntry(r))
	}
	return out, nil
}

// GetDay indexes one day's entries by member key.
func (s *Store) GetDay(ctx context.Context, day carpool.Day) (map[string]carpool.Entry, error) {
	entries, err := s.Get(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make(map[string]carpool.Entry, len(entries))
	for _, e := range entries {
		if cur, ok := out[e.MemberKey]; ok && !e.UpdateTS.After(cur.UpdateTS) {
			continue
		}
		out[e.MemberKey] = e
	}
	return out, nil
}

// All returns the full history. Rows whose day cannot be read are reported
// under today with the stored text kept in RawDay.
func (s *Store) All(ctx context.Context) ([]carpool.Entry, error) {
	return s.list(s.db.WithContext(ctx))
}

// ListEntries applies member and role in SQL and the remaining predicates,
// plus the audit ordering, in memory.
func (s *Store) ListEntries(ctx context.Context, f carpool.AuditFilter) ([]carpool.Entry, error) {
	q := s.db.WithContext(ctx)
	if f.MemberKey != "" {
		q = q.Where("member_key = ?", f.MemberKey)
	}
	if f.Role != "" {
		q = q.Where("role = ?", string(f.Role))
	}
	entries, err := s.list(q)
	if err != nil {
		return nil, err
	}
	return carpool.Audit(entries, f), nil
}

func (s *Store) list(q *gorm.DB) ([]carpool.Entry, error) {
	var rows []model.Entry
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]carpool.Entry, len(rows))
	for i, r := range rows {
		out[i] = s.toEntry(r)
	}
	return out, nil
}

// Upsert writes entries for one day in a single transaction. Rows stored for
// the same calendar day under a legacy format are rewritten to ISO, and
// extra duplicates of a member are removed so (day, member) stays unique.
func (s *Store) Upsert(ctx context.Context, day carpool.Day, entries []carpool.Entry) error {
	iso := day.String()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.dayRows(tx, day)
		if err != nil {
			return err
		}
		byMember := make(map[string][]model.Entry, len(existing))
		for _, r := range existing {
			byMember[r.MemberKey] = append(byMember[r.MemberKey], r)
		}

		for _, e := range entries {
			row := model.Entry{Day: iso, MemberKey: e.MemberKey, Role: string(e.Role), UpdateUser: e.UpdateUser, UpdateTS: model.NewTimestamp(e.UpdateTS)}

			rows := byMember[e.MemberKey]
			if len(rows) == 0 {
				err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "day"}, {Name: "member_key"}},
					DoUpdates: clause.AssignmentColumns([]string{"role", "update_user", "update_ts"}),
				}).Create(&row).Error
				if err != nil {
					return fmt.Errorf("insert entry %s/%s: %w", iso, e.MemberKey, err)
				}
				continue
			}

			keep, drop := pickRow(rows, iso)
			if len(drop) > 0 {
				if err := tx.Delete(&model.Entry{}, drop).Error; err != nil {
					return fmt.Errorf("drop duplicate entries %s/%s: %w", iso, e.MemberKey, err)
				}
				slog.Warn("store.duplicates_dropped", "day", iso, "member", e.MemberKey, "ids", drop)
			}
			if keep.Day != iso {
				slog.Info("store.day_rewritten", "from", keep.Day, "to", iso, "member", e.MemberKey)
			}
			err := tx.Model(&model.Entry{}).Where("id = ?", keep.ID).Updates(map[string]any{
				"day":         iso,
				"role":        row.Role,
				"update_user": row.UpdateUser,
				"update_ts":   row.UpdateTS,
			}).Error
			if err != nil {
				return fmt.Errorf("update entry %s/%s: %w", iso, e.MemberKey, err)
			}
		}
		return nil
	})
}

// UpsertDay saves validated roles for day, stamping them with updatedBy and
// the current time, and returns what was written.
func (s *Store) UpsertDay(ctx context.Context, day carpool.Day, roles map[string]carpool.Role, updatedBy string) ([]carpool.Entry, error) {
	entries := carpool.EntriesFor(day, roles, updatedBy, s.now().UTC().Truncate(time.Second))
	if err := s.Upsert(ctx, day, entries); err != nil {
		return nil, fmt.Errorf("upsert day %s: %w", day, err)
	}
	return entries, nil
}

// dayRows loads ISO rows for day plus every non-ISO row, then keeps the ones
// that normalise to day. Legacy rows are rare so the scan stays small.
func (s *Store) dayRows(db *gorm.DB, day carpool.Day) ([]model.Entry, error) {
	iso := day.String()
	var rows []model.Entry
	err := db.Where("day = ? OR day LIKE ? OR day NOT LIKE ?", iso, iso+" %", "____-__-__%").
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get entries %s: %w", iso, err)
	}
	out := rows[:0]
	for _, r := range rows {
		d, err := carpool.ParseDay(r.Day)
		if err == nil && d == day {
			out = append(out, r)
		}
	}
	return out, nil
}

// pickRow keeps the ISO row when there is one, else the oldest.
func pickRow(rows []model.Entry, iso string) (model.Entry, []int) {
	keep := rows[0]
	for _, r := range rows {
		if r.Day == iso {
			keep = r
			break
		}
	}
	var drop []int
	for _, r := range rows {
		if r.ID != keep.ID {
			drop = append(drop, r.ID)
		}
	}
	return keep, drop
}

func (s *Store) toEntry(r model.Entry) carpool.Entry {
	d, err := carpool.ParseDay(r.Day)
	if err != nil {
		d = carpool.DayOf(s.now())
		slog.Warn("store.day_fallback", "id", r.ID, "day", r.Day, "as", d.String())
	}
	e := carpool.Entry{
		Day:        d,
		MemberKey:  r.MemberKey,
		Role:       carpool.Role(r.Role),
		UpdateUser: r.UpdateUser,
	}
	if r.Day != d.String() {
		e.RawDay = r.Day
	}
	if r.UpdateTS.Valid {
		e.UpdateTS = r.UpdateTS.Time.UTC()
	}
	return e
}
