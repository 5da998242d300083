// migrate-to-postgres copies an Idle Spire SQLite database into PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/idlespire.db \
//	    -pg "host=localhost port=5432 user=idlespire password=idlespire dbname=idlespire sslmode=disable"
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/spirekeep/idlespire/internal/database"
)

// tables lists every table to copy, in dependency order (players references
// accounts).
var tables = []tableSpec{
	{
		name:    "accounts",
		columns: []string{"username", "password_hash", "display_name", "is_admin", "created_at", "last_login"},
	},
	{
		name:    "players",
		columns: []string{"id", "name", "gold", "max_floor", "state", "updated_at"},
	},
	{
		name:    "listings",
		columns: []string{"id", "seller_id", "seller_name", "item", "quantity", "unit_price", "listed_at"},
	},
	{
		name:    "records",
		columns: []string{"kind", "holder", "value", "detail"},
	},
}

type tableSpec struct {
	name    string
	columns []string
}

func main() {
	sqlitePath := flag.String("sqlite", "data/idlespire.db", "path to the SQLite database")
	pgDSN := flag.String("pg", "", "PostgreSQL connection string")
	dryRun := flag.Bool("dry-run", false, "count rows without writing anything")
	flag.Parse()

	if *pgDSN == "" {
		log.Println("missing -pg connection string")
		flag.Usage()
		os.Exit(2)
	}
	if _, err := os.Stat(*sqlitePath); err != nil {
		log.Fatalf("SQLite database not found: %v", err)
	}

	src, err := sql.Open("sqlite", *sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()
	if err := src.Ping(); err != nil {
		log.Fatalf("Failed to connect to SQLite database: %v", err)
	}

	// Opening through the database package runs the schema migration on the
	// target so the tables exist before the copy.
	if !*dryRun {
		target, err := database.Open(database.DialectPostgres, *pgDSN)
		if err != nil {
			log.Fatalf("Failed to prepare PostgreSQL schema: %v", err)
		}
		target.Close()
	}

	dst, err := sql.Open("postgres", *pgDSN)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()
	if err := dst.Ping(); err != nil {
		log.Fatalf("Failed to connect to PostgreSQL database: %v", err)
	}

	for _, t := range tables {
		n, err := copyTable(src, dst, t, *dryRun)
		if err != nil {
			log.Fatalf("Failed to migrate %s: %v", t.name, err)
		}
		if *dryRun {
			log.Printf("%s: %d rows would be copied", t.name, n)
		} else {
			log.Printf("%s: %d rows copied", t.name, n)
		}
	}

	if *dryRun {
		log.Println("Dry run complete, nothing written.")
	} else {
		log.Println("Migration complete.")
	}
}

// copyTable streams every row of one table from src into dst inside a single
// transaction. Existing rows in the target abort the copy rather than being
// silently overwritten.
func copyTable(src, dst *sql.DB, t tableSpec, dryRun bool) (int, error) {
	rows, err := src.Query(fmt.Sprintf("SELECT %s FROM %s", columnList(t.columns), t.name))
	if err != nil {
		return 0, fmt.Errorf("read failed: %w", err)
	}
	defer rows.Close()

	var tx *sql.Tx
	var stmt *sql.Stmt
	if !dryRun {
		tx, err = dst.Begin()
		if err != nil {
			return 0, fmt.Errorf("begin failed: %w", err)
		}
		defer tx.Rollback()

		stmt, err = tx.Prepare(insertStatement(t))
		if err != nil {
			return 0, fmt.Errorf("prepare failed: %w", err)
		}
		defer stmt.Close()
	}

	count := 0
	values := make([]any, len(t.columns))
	ptrs := make([]any, len(t.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, fmt.Errorf("scan failed: %w", err)
		}
		if !dryRun {
			if _, err := stmt.Exec(values...); err != nil {
				return count, fmt.Errorf("insert failed: %w", err)
			}
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("row iteration failed: %w", err)
	}

	if !dryRun {
		if err := tx.Commit(); err != nil {
			return count, fmt.Errorf("commit failed: %w", err)
		}
	}
	return count, nil
}

func columnList(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

func insertStatement(t tableSpec) string {
	placeholders := ""
	for i := range t.columns {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, columnList(t.columns), placeholders)
}
