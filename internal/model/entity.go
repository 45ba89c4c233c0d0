package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type User struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex" json:"username"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
}

type Member struct {
	ID     int    `gorm:"primaryKey" json:"-"`
	Key    string `gorm:"column:key;uniqueIndex" json:"key"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Entry is a row of the entries table. Day is free text because older
// clients stored non-ISO dates; new rows are always ISO.
type Entry struct {
	ID         int        `gorm:"primaryKey"`
	Day        string     `gorm:"uniqueIndex:uk_day_member"`
	MemberKey  string     `gorm:"uniqueIndex:uk_day_member"`
	Role       string
	UpdateUser string    `gorm:"size:64;default:admin"`
	UpdateTS   Timestamp `gorm:"column:update_ts"`
}

// Timestamp is a nullable update_ts. Databases created by the first release
// declare the column as TEXT, so Scan also reads the text forms SQLite's
// CURRENT_TIMESTAMP and the driver's own time encoding produce.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t, Valid: true} }

func (t *Timestamp) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*t = Timestamp{}
	case time.Time:
		*t = NewTimestamp(x)
	case string:
		*t = parseTimestamp(x)
	case []byte:
		*t = parseTimestamp(string(x))
	default:
		return fmt.Errorf("scan update_ts: unsupported type %T", v)
	}
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

func (Timestamp) GormDataType() string { return "time" }

// parseTimestamp reads text as UTC unless it carries an offset. Text in no
// known layout scans as NULL.
func parseTimestamp(s string) Timestamp {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(ts)
		}
	}
	return Timestamp{}
}

func (User) TableName() string   { return "users" }
func (Member) TableName() string { return "members" }
func (Entry) TableName() string  { return "entries" }
