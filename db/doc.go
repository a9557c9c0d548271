// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connections

Open selects the driver from the configured database type:

	conn, err := db.Open(models.StoreSQLite, "file:council-vote.db")
	conn, err := db.Open(models.StorePostgres, "postgres://...")

SQLite uses modernc.org/sqlite (pure Go, driver name "sqlite") and is limited
to one open connection. Postgres uses github.com/lib/pq.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_config: key/value; holds the election (roster + cap) as JSON
  - candidate_tally: one counter per candidate, with roster position and label
  - voter_record: one row per identity that has voted (receipt id, time)

The chosen candidate is never stored next to the identity.

Nothing is ever deleted: counters only increase and voter records are never reset.
*/
package db
