package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// LoadMenu ingests the menu CSV into the menu_items table, ignoring duplicates.
func LoadMenu(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load menu catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read menu header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start menu transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO menu_items (id, name, category, price, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare menu insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read menu row: %v", err)
			continue
		}
		if len(record) < 5 {
			continue
		}
		id := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		category := strings.TrimSpace(record[2])
		price, convErr := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		description := strings.TrimSpace(record[4])
		if id == "" || name == "" || convErr != nil || price < 0 {
			continue
		}
		if _, err := stmt.Exec(id, name, category, price, description); err != nil {
			log.Printf("unable to insert menu item %s: %v", id, err)
			continue
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit menu seed: %v", err)
		return
	}
	log.Printf("seeded %d menu items from %s", rows, csvPath)
}

// LoadTables ingests the dining table CSV, ignoring duplicates.
func LoadTables(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load table catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read table header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start table transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO dining_tables (id, name, seats, zone) VALUES (?, ?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare table insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read table row: %v", err)
			continue
		}
		if len(record) < 4 {
			continue
		}
		id, idErr := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		name := strings.TrimSpace(record[1])
		seats, seatsErr := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
		zone := strings.TrimSpace(record[3])
		if idErr != nil || id <= 0 || name == "" || seatsErr != nil {
			continue
		}
		if _, err := stmt.Exec(id, name, seats, zone); err != nil {
			log.Printf("unable to insert table %d: %v", id, err)
			continue
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit table seed: %v", err)
		return
	}
	log.Printf("seeded %d tables from %s", rows, csvPath)
}
