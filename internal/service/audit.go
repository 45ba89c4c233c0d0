package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"carpool/internal/carpool"
)

const auditSheet = "audit"

var auditHeader = []any{"Day", "Stored day", "Member", "Role", "Updated by", "Updated at (UTC)"}

type AuditStore interface {
	ListEntries(ctx context.Context, f carpool.AuditFilter) ([]carpool.Entry, error)
}

type AuditService struct{ store AuditStore }

func NewAuditService(store AuditStore) *AuditService { return &AuditService{store: store} }

// AuditQuery is the raw filter as it arrives from a request or flag.
type AuditQuery struct {
	Member string
	Role   string
	Start  string
	End    string
	Query  string
}

// Filter parses q. Bad role or date values are reported together.
func (q AuditQuery) Filter() (carpool.AuditFilter, error) {
	f := carpool.AuditFilter{MemberKey: strings.ToUpper(strings.TrimSpace(q.Member)), Query: q.Query}
	var fields []carpool.FieldError
	if q.Role != "" {
		r, err := carpool.ParseRole(q.Role)
		if err != nil {
			fields = append(fields, carpool.FieldError{Field: "role", Value: q.Role, Err: carpool.ErrInvalidRole})
		}
		f.Role = r
	}
	for _, b := range []struct {
		name, raw string
		dst       *carpool.Day
	}{{"start", q.Start, &f.Start}, {"end", q.End, &f.End}} {
		if b.raw == "" {
			continue
		}
		d, err := carpool.ParseDay(b.raw)
		if err != nil {
			fields = append(fields, carpool.FieldError{Field: b.name, Value: b.raw, Err: carpool.ErrInvalidDay})
			continue
		}
		*b.dst = d
	}
	if len(fields) > 0 {
		return carpool.AuditFilter{}, &carpool.ValidationError{Fields: fields}
	}
	return f, nil
}

func (s *AuditService) List(ctx context.Context, q AuditQuery) ([]carpool.Entry, error) {
	f, err := q.Filter()
	if err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, f)
}

// Export writes the filtered audit rows as an XLSX workbook.
func (s *AuditService) Export(ctx context.Context, q AuditQuery, w io.Writer) (int, error) {
	entries, err := s.List(ctx, q)
	if err != nil {
		return 0, err
	}
	if err := WriteAuditXLSX(w, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func WriteAuditXLSX(w io.Writer, entries []carpool.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(auditSheet, "A1", &auditHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(auditSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		ts := ""
		if !e.UpdateTS.IsZero() {
			ts = e.UpdateTS.UTC().Format("2006-01-02 15:04:05")
		}
		row := []any{e.Day.String(), e.RawDay, e.MemberKey, e.Role.Name(), e.UpdateUser, ts}
		if err := f.SetSheetRow(auditSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(auditSheet, "A", "F", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.AutoFilter(auditSheet, fmt.Sprintf("A1:F%d", len(entries)+1), nil); err != nil {
		return fmt.Errorf("auto filter: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
