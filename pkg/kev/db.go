package kev

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func (cli *Client) Init() error {

	if !exists(cli.Store) {
		err := mkFolder(cli.Store)
		if err != nil {
			return err
		}
	}

	dbPath := filepath.Join(cli.Store, "kev.db")

	var db *sql.DB
	if !exists(dbPath) {
		file, err := os.Create(dbPath)
		if err != nil {
			return err
		}
		file.Close()
		db, _ = sql.Open("sqlite3", dbPath)
		kevTable := `CREATE TABLE kevs (
			"ID" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			"CVEID" TEXT UNIQUE,
			"VendorProject" TEXT,
			"Product" TEXT,
			"VulnName" TEXT,
			"DateAdded" TEXT,
			"DueDate" TEXT,
			"RequiredAction" TEXT,
			"Ransomware" INTEGER);`
		query, err := db.Prepare(kevTable)
		if err != nil {
			return err
		}
		query.Exec()

		catalogTable := `CREATE TABLE catalog (
			"ID" INTEGER NOT NULL PRIMARY KEY CHECK (ID = 1),
			"Version" TEXT,
			"Released" TEXT,
			"FetchedAt" TEXT);`
		query, err = db.Prepare(catalogTable)
		if err != nil {
			return err
		}
		query.Exec()
	} else {
		db, _ = sql.Open("sqlite3", dbPath)
	}

	cli.DB = db
	return nil
}

func (cli *Client) saveSnapshot(s *Snapshot) error {

	if _, err := cli.DB.Exec(`DELETE FROM kevs`); err != nil {
		return err
	}

	sqlRow := `INSERT OR REPLACE INTO kevs
				  ("CVEID", "VendorProject", "Product", "VulnName", "DateAdded", "DueDate", "RequiredAction", "Ransomware")
			   VALUES
				  (?, ?, ?, ?, ?, ?, ?, ?)`

	for _, e := range s.entries {
		ransom := 0
		if e.KnownRansomware {
			ransom = 1
		}

		_, err := cli.DB.Exec(sqlRow, e.CVEID, e.VendorProject,
			e.Product, e.VulnName, e.DateAdded,
			e.DueDate, e.RequiredAction, ransom)
		if err != nil {
			return err
		}
	}

	_, err := cli.DB.Exec(`INSERT OR REPLACE INTO catalog ("ID", "Version", "Released", "FetchedAt") VALUES (1, ?, ?, ?)`,
		s.CatalogVersion, s.DateReleased, s.FetchedAt.Format(time.RFC3339))

	return err
}

func (cli *Client) loadSnapshot() (*Snapshot, error) {

	snap := &Snapshot{
		entries: map[string]*Entry{},
	}

	row := cli.DB.QueryRow(`SELECT Version, Released, FetchedAt FROM catalog WHERE ID = 1`)

	var fetched string
	if err := row.Scan(&snap.CatalogVersion, &snap.DateReleased, &fetched); err != nil {
		return snap, err
	}
	snap.FetchedAt, _ = time.Parse(time.RFC3339, fetched)

	rows, err := cli.DB.Query(`SELECT CVEID, VendorProject, Product, VulnName, DateAdded, DueDate, RequiredAction, Ransomware FROM kevs`)
	if err != nil {
		return snap, err
	}

	defer rows.Close()

	for rows.Next() {
		e := &Entry{}
		var ransom int
		err = rows.Scan(&e.CVEID, &e.VendorProject, &e.Product,
			&e.VulnName, &e.DateAdded, &e.DueDate,
			&e.RequiredAction, &ransom)
		if err != nil {
			continue
		}
		e.KnownRansomware = ransom == 1

		snap.entries[e.CVEID] = e
	}

	if err = rows.Err(); err != nil {
		return snap, err
	}

	return snap, nil
}

// storedVersion returns the catalog version of the cached snapshot,
// empty when no snapshot is cached.
func (cli *Client) storedVersion() string {
	row := cli.DB.QueryRow(`SELECT Version FROM catalog WHERE ID = 1`)

	var v string
	if err := row.Scan(&v); err != nil {
		return ""
	}
	return v
}
