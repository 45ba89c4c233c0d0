package main

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"carpool/internal/logger"
)

var catalogTables = []struct {
	name    string
	comment string
	columns []sdk.Column
}{
	{"members", "carpool roster", []sdk.Column{
		{Name: "key", Type: "VARCHAR(16)", IsPk: true, Comment: "short member code, e.g. CA"},
		{Name: "name", Type: "VARCHAR(64)", Comment: "display name"},
		{Name: "active", Type: "TINYINT", Comment: "1 when the member takes part in suggestions"},
	}},
	{"entries", "one role per member per day", []sdk.Column{
		{Name: "day", Type: "DATE", IsPk: true, Comment: "calendar day"},
		{Name: "member_key", Type: "VARCHAR(16)", IsPk: true, Comment: "members.key"},
		{Name: "role", Type: "CHAR(1)", Comment: "D driver, R rider, O off"},
		{Name: "update_user", Type: "VARCHAR(64)", Comment: "user who saved the day"},
		{Name: "update_ts", Type: "DATETIME", Comment: "save time, UTC"},
	}},
}

// initCatalog creates the mirror database and tables and returns the table
// IDs by name so they can be copied into moi.*_table_id.
func initCatalog(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, map[string]sdk.TableID, error) {
	dbID, err := createDatabase(ctx, client, catalogID, dbName)
	if err != nil {
		return 0, nil, err
	}

	ids := make(map[string]sdk.TableID, len(catalogTables))
	for _, t := range catalogTables {
		resp, err := client.CreateTable(ctx, &sdk.TableCreateRequest{
			DatabaseID: dbID,
			Name:       t.name,
			Columns:    t.columns,
			Comment:    t.comment,
		})
		if err != nil {
			if isDuplicate(err) {
				logger.Info("catalog: table already exists, skipping", "name", t.name)
				continue
			}
			return 0, nil, fmt.Errorf("create table %s: %w", t.name, err)
		}
		ids[t.name] = resp.TableID
		logger.Info("catalog: table created", "name", t.name, "id", resp.TableID)
	}
	return dbID, ids, nil
}

func createDatabase(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, error) {
	resp, err := client.CreateDatabase(ctx, &sdk.DatabaseCreateRequest{
		CatalogID:    catalogID,
		DatabaseName: dbName,
		Comment:      "carpool schedule mirror",
	})
	if err == nil {
		logger.Info("catalog: database created", "id", resp.DatabaseID)
		return resp.DatabaseID, nil
	}
	if !isDuplicate(err) {
		return 0, fmt.Errorf("create database: %w", err)
	}

	logger.Info("catalog: database already exists, discovering ID", "name", dbName)
	list, err := client.ListDatabases(ctx, &sdk.DatabaseListRequest{CatalogID: catalogID})
	if err != nil {
		return 0, fmt.Errorf("list databases: %w", err)
	}
	for _, db := range list.List {
		if db.DatabaseName == dbName {
			logger.Info("catalog: database discovered", "id", db.DatabaseID)
			return db.DatabaseID, nil
		}
	}
	return 0, fmt.Errorf("database %s not found in catalog %d", dbName, catalogID)
}

func isDuplicate(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate") || strings.Contains(s, "already exist") || strings.Contains(s, "exists") || strings.Contains(s, "conflict")
}
