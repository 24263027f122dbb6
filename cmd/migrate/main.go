package main

import (
	"log"
	"os"

	"dataset-explorer-be/internal/model"
	"dataset-explorer-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.Open(dsn, true, database.DefaultPool)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	// gen_random_uuid() is the primary key default.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to enable pgcrypto: %v. Continuing...", err)
	}

	if err := database.Migrate(db, &model.Collection{}); err != nil {
		log.Fatalf("Error: %v", err)
	}

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_custom_collections_dataset_ids ON custom_collections USING GIN (dataset_ids);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: custom_collections migrated")
}
