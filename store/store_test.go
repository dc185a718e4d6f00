package store

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/dap-ware/whodis/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, SetupDatabase(db))
	return db
}

func sampleRecord(domain string) models.Record {
	created := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	return models.Record{
		Domain:         domain,
		Server:         "whois.example.net",
		Registrar:      "Example Registrar",
		CreationDate:   &created,
		ExpirationDate: &expires,
		NameServers:    []string{"ns1.example.net", "ns2.example.net"},
		Status:         []string{"active"},
		QueryTimeMS:    42,
	}
}

func TestSetupDatabaseIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SetupDatabase(db))
}

func TestInsertWorkerPersistsBatches(t *testing.T) {
	db := openTestDB(t)

	records := make(chan []models.Record, 4)
	var wg sync.WaitGroup
	wg.Add(1)
	go InsertWorker(db, records, &wg)

	records <- []models.Record{sampleRecord("one.example"), sampleRecord("two.example")}
	records <- []models.Record{sampleRecord("three.example")}
	close(records)
	wg.Wait()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM lookups").Scan(&count))
	require.Equal(t, 3, count)
}

func TestFetchHistoryRoundTrip(t *testing.T) {
	db := openTestDB(t)

	records := make(chan []models.Record, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go InsertWorker(db, records, &wg)
	records <- []models.Record{sampleRecord("history.example")}
	close(records)
	wg.Wait()

	entries, err := FetchHistory(db, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	require.Equal(t, "history.example", entry.Domain)
	require.Equal(t, "whois.example.net", entry.Server)
	require.Equal(t, "Example Registrar", entry.Registrar)
	require.Equal(t, []string{"ns1.example.net", "ns2.example.net"}, entry.NameServers)
	require.Equal(t, []string{"active"}, entry.Status)
	require.Equal(t, "2015-03-01T00:00:00Z", entry.CreationDate)
	require.Equal(t, "2027-03-01T00:00:00Z", entry.ExpirationDate)
	require.Empty(t, entry.UpdatedDate)
	require.Equal(t, int64(42), entry.QueryTimeMS)
	require.NotEmpty(t, entry.LookedUpAt)
}

func TestFetchHistoryPagination(t *testing.T) {
	db := openTestDB(t)

	records := make(chan []models.Record, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go InsertWorker(db, records, &wg)
	batch := make([]models.Record, 0, 25)
	for i := 0; i < 25; i++ {
		batch = append(batch, sampleRecord("page.example"))
	}
	records <- batch
	close(records)
	wg.Wait()

	page1, err := FetchHistory(db, 1, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)

	page3, err := FetchHistory(db, 3, 10)
	require.NoError(t, err)
	require.Len(t, page3, 5)
}

func TestFetchDomainHistory(t *testing.T) {
	db := openTestDB(t)

	records := make(chan []models.Record, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go InsertWorker(db, records, &wg)
	records <- []models.Record{
		sampleRecord("target.example"),
		sampleRecord("other.example"),
		sampleRecord("target.example"),
	}
	close(records)
	wg.Wait()

	entries, err := FetchDomainHistory(db, "target.example", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		require.Equal(t, "target.example", entry.Domain)
	}
}
