// Package store persists completed lookups to SQLite for enrichment
// pipelines that page through history later. It is an observer: a store
// failure never fails a lookup.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dap-ware/whodis/models"
)

// SetupDatabase creates the lookups table and its index when missing.
func SetupDatabase(db *sql.DB) error {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS lookups (
        id INTEGER PRIMARY KEY,
        domain TEXT NOT NULL,
        server TEXT,
        registrar TEXT,
        creation_date INTEGER,
        expiration_date INTEGER,
        updated_date INTEGER,
        name_servers TEXT,
        status TEXT,
        registrant_name TEXT,
        registrant_email TEXT,
        admin_email TEXT,
        tech_email TEXT,
        query_time_ms INTEGER,
        looked_up_at INTEGER NOT NULL
    );`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("error creating lookups table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_lookups_domain ON lookups (domain);`); err != nil {
		return fmt.Errorf("error creating domain index: %w", err)
	}

	return nil
}

// HistoryEntry is one persisted lookup row as returned by FetchHistory.
type HistoryEntry struct {
	ID             int64    `json:"-"`
	Domain         string   `json:"domain"`
	Server         string   `json:"server"`
	Registrar      string   `json:"registrar,omitempty"`
	CreationDate   string   `json:"creation_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	UpdatedDate    string   `json:"updated_date,omitempty"`
	NameServers    []string `json:"name_servers,omitempty"`
	Status         []string `json:"status,omitempty"`
	RegistrantName string   `json:"registrant_name,omitempty"`
	QueryTimeMS    int64    `json:"query_time_ms"`
	LookedUpAt     string   `json:"looked_up_at"`
}

// InsertWorker drains batches of completed lookups into the database,
// retrying each batch a few times before giving up on it.
func InsertWorker(db *sql.DB, records chan []models.Record, wg *sync.WaitGroup) {
	defer wg.Done()

	for batch := range records {
		var err error
		for attempt := 0; attempt < 3; attempt++ {
			tx, txErr := db.Begin()
			if txErr != nil {
				log.Printf("Error starting transaction: %v", txErr)
				continue
			}

			err = insertBatch(tx, batch)
			if err == nil {
				if err := tx.Commit(); err != nil {
					log.Printf("Error committing transaction: %v", err)
				}
				break
			}
			if err := tx.Rollback(); err != nil {
				log.Printf("Error rolling back transaction: %v", err)
			}

			log.Printf("Retry %d: Error inserting batch: %v", attempt+1, err)
			time.Sleep(time.Second * 2)
		}
		if err != nil {
			log.Printf("Final error after retries: %v", err)
		}
	}
}

func insertBatch(tx *sql.Tx, batch []models.Record) error {
	stmt, err := tx.Prepare(`INSERT INTO lookups (domain, server, registrar, creation_date, expiration_date, updated_date, name_servers, status, registrant_name, registrant_email, admin_email, tech_email, query_time_ms, looked_up_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, rec := range batch {
		_, err = stmt.Exec(
			rec.Domain,
			rec.Server,
			rec.Registrar,
			unixOrNil(rec.CreationDate),
			unixOrNil(rec.ExpirationDate),
			unixOrNil(rec.UpdatedDate),
			strings.Join(rec.NameServers, ","),
			strings.Join(rec.Status, ","),
			rec.RegistrantName,
			rec.RegistrantEmail,
			rec.AdminEmail,
			rec.TechEmail,
			rec.QueryTimeMS,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func unixOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// FetchHistory pages through persisted lookups, newest first.
func FetchHistory(db *sql.DB, page, size int) ([]HistoryEntry, error) {
	offset := (page - 1) * size

	query := `SELECT id, domain, server, registrar, creation_date, expiration_date, updated_date, name_servers, status, registrant_name, query_time_ms, looked_up_at FROM lookups ORDER BY looked_up_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := db.Query(query, size, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry                     HistoryEntry
			created, expires, updated sql.NullInt64
			nameServers, status       sql.NullString
			registrar, registrant     sql.NullString
			server                    sql.NullString
			lookedUpAt                int64
		)
		err := rows.Scan(
			&entry.ID,
			&entry.Domain,
			&server,
			&registrar,
			&created,
			&expires,
			&updated,
			&nameServers,
			&status,
			&registrant,
			&entry.QueryTimeMS,
			&lookedUpAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Server = server.String
		entry.Registrar = registrar.String
		entry.RegistrantName = registrant.String
		entry.CreationDate = formatUnix(created)
		entry.ExpirationDate = formatUnix(expires)
		entry.UpdatedDate = formatUnix(updated)
		entry.NameServers = splitList(nameServers.String)
		entry.Status = splitList(status.String)
		entry.LookedUpAt = time.Unix(lookedUpAt, 0).UTC().Format(time.RFC3339)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// FetchDomainHistory returns the persisted lookups for one domain,
// newest first.
func FetchDomainHistory(db *sql.DB, domain string, limit int) ([]HistoryEntry, error) {
	rows, err := db.Query(`SELECT id, domain, server, registrar, creation_date, expiration_date, updated_date, name_servers, status, registrant_name, query_time_ms, looked_up_at FROM lookups WHERE domain = ? ORDER BY looked_up_at DESC, id DESC LIMIT ?`, domain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry                     HistoryEntry
			created, expires, updated sql.NullInt64
			nameServers, status       sql.NullString
			registrar, registrant     sql.NullString
			server                    sql.NullString
			lookedUpAt                int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Domain,
			&server,
			&registrar,
			&created,
			&expires,
			&updated,
			&nameServers,
			&status,
			&registrant,
			&entry.QueryTimeMS,
			&lookedUpAt,
		); err != nil {
			return nil, err
		}
		entry.Server = server.String
		entry.Registrar = registrar.String
		entry.RegistrantName = registrant.String
		entry.CreationDate = formatUnix(created)
		entry.ExpirationDate = formatUnix(expires)
		entry.UpdatedDate = formatUnix(updated)
		entry.NameServers = splitList(nameServers.String)
		entry.Status = splitList(status.String)
		entry.LookedUpAt = time.Unix(lookedUpAt, 0).UTC().Format(time.RFC3339)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func formatUnix(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return time.Unix(v.Int64, 0).UTC().Format(time.RFC3339)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
