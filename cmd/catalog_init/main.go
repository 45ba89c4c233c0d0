package main

import (
	"context"
	"flag"
	"log"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"carpool/internal/config"
	"carpool/internal/logger"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	skipKnowledge := flag.Bool("skip-knowledge", false, "only create the database and tables")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	if cfg.MOI.APIKey == "" {
		log.Fatal("moi.api_key (or MOI_API_KEY) is required")
	}
	client, err := cfg.NewRawClient()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	catalogID := sdk.CatalogID(cfg.MOI.CatalogID)
	if catalogID == 0 {
		catalogID = 1
	}

	dbID, tables, err := initCatalog(ctx, client, catalogID, cfg.Database.Name)
	if err != nil {
		log.Fatal("catalog init failed:", err)
	}
	logger.Info("catalog: set these in moi config",
		"database_id", dbID, "members_table_id", tables["members"], "entries_table_id", tables["entries"])

	if !*skipKnowledge {
		if err := initKnowledge(ctx, client); err != nil {
			log.Fatal("knowledge init failed:", err)
		}
	}

	logger.Info("=== all done ===")
}
