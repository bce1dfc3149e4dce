package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/BRian-210/Karumande/app/config"
	"github.com/BRian-210/Karumande/app/database"
)

func main() {
	log.Println("Starting database migration...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	db := config.GetDB()
	if db == nil {
		log.Fatal("Failed to get database instance")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	log.Println("Migration completed successfully!")
}
