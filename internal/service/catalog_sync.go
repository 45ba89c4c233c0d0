package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"carpool/internal/carpool"
	"carpool/internal/metrics"
)

// CatalogTables locates the mirror tables created by catalog_init.
type CatalogTables struct {
	DatabaseID     int
	MembersTableID int
	EntriesTableID int
}

// CatalogSync mirrors saved days and the roster into MatrixOne catalog
// tables. Failures are logged and counted, never returned.
type CatalogSync struct {
	raw     *sdk.RawClient
	sdk     *sdk.SDKClient
	tables  CatalogTables
	metrics *metrics.Metrics
}

func NewCatalogSync(raw *sdk.RawClient, tables CatalogTables, m *metrics.Metrics) *CatalogSync {
	return &CatalogSync{raw: raw, sdk: sdk.NewSDKClient(raw), tables: tables, metrics: m}
}

var entryColumns = []sdk.FileAndTableColumnMapping{
	{TableColumn: "day", Column: "day", ColNumInFile: 1},
	{TableColumn: "member_key", Column: "member_key", ColNumInFile: 2},
	{TableColumn: "role", Column: "role", ColNumInFile: 3},
	{TableColumn: "update_user", Column: "update_user", ColNumInFile: 4},
	{TableColumn: "update_ts", Column: "update_ts", ColNumInFile: 5},
}

var memberColumns = []sdk.FileAndTableColumnMapping{
	{TableColumn: "key", Column: "key", ColNumInFile: 1},
	{TableColumn: "name", Column: "name", ColNumInFile: 2},
	{TableColumn: "active", Column: "active", ColNumInFile: 3},
}

func (s *CatalogSync) SyncDay(ctx context.Context, day carpool.Day, entries []carpool.Entry) {
	if len(entries) == 0 {
		return
	}
	name := fmt.Sprintf("entries_%s_%d.csv", day, time.Now().Unix())
	s.importCSV(ctx, "entries", sdk.TableID(s.tables.EntriesTableID), entriesCSV(entries), name, entryColumns)
}

func (s *CatalogSync) SyncMembers(ctx context.Context, members []carpool.Member) {
	if len(members) == 0 {
		return
	}
	s.importCSV(ctx, "members", sdk.TableID(s.tables.MembersTableID), membersCSV(members), "members.csv", memberColumns)
}

func entriesCSV(entries []carpool.Entry) string {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s,%s,%s,%s,%s\n",
			e.Day, esc(e.MemberKey), e.Role, esc(e.UpdateUser), e.UpdateTS.UTC().Format("2006-01-02 15:04:05"))
	}
	return buf.String()
}

func membersCSV(members []carpool.Member) string {
	var buf bytes.Buffer
	for _, m := range members {
		active := 0
		if m.Active {
			active = 1
		}
		fmt.Fprintf(&buf, "%s,%s,%d\n", esc(m.Key), esc(m.Name), active)
	}
	return buf.String()
}

func (s *CatalogSync) importCSV(ctx context.Context, table string, tableID sdk.TableID, csv, fileName string, mapping []sdk.FileAndTableColumnMapping) {
	resp, err := s.raw.UploadLocalFile(ctx, bytes.NewReader([]byte(csv)), fileName, []sdk.FileMeta{{Filename: fileName, Path: "/"}})
	if err != nil {
		slog.Warn("catalog sync: upload failed", "table", table, "err", err)
		s.metrics.CatalogSynced(table, false)
		return
	}
	if len(resp.ConnFileIds) == 0 {
		slog.Warn("catalog sync: no conn_file_ids", "table", table)
		s.metrics.CatalogSynced(table, false)
		return
	}

	_, err = s.sdk.ImportLocalFileToTable(ctx, &sdk.TableConfig{
		ConnFileIDs:      resp.ConnFileIds,
		NewTable:         false,
		DatabaseID:       sdk.DatabaseID(s.tables.DatabaseID),
		TableID:          tableID,
		IsColumnName:     false,
		RowStart:         1,
		Conflict:         1,
		ExistedTable:     mapping,
		ExistedTableOpts: sdk.ExistedTableOptions{Method: sdk.ExistedTableOptionAppend},
	})
	if err != nil {
		slog.Warn("catalog sync: import failed", "table", table, "err", err)
		s.metrics.CatalogSynced(table, false)
		return
	}
	s.metrics.CatalogSynced(table, true)
	slog.Info("catalog sync: ok", "table", table, "file", fileName)
}

func esc(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
