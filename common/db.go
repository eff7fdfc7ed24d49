package common

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func ConnectDb() *gorm.DB {
	dbFile := os.Getenv("sqlite_db")
	log.Println("attemptConnectDb: sqlite_db from env (raw):", dbFile)
	if dbFile == "" {
		log.Println("sqlite_db not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", dbFile)
	return db
}

// ConnectStatsDb opens the separate analytics database
func ConnectStatsDb() *gorm.DB {
	statsDbFile := os.Getenv("stats_db")
	log.Println("attemptConnectStatsDb: stats_db from env (raw):", statsDbFile)

	if statsDbFile == "" {
		log.Println("stats_db not set - analytics will be disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(statsDbFile), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Println("Error opening stats sqlite db: " + err.Error())
		return nil
	}

	log.Println("opened stats sqlite db at:", statsDbFile)
	return db
}
