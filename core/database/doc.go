// Package database handles the MySQL connection for the catalog store.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly
// configure MySQL connections based on the application's configuration: pooled
// connections, connection/I-O timeouts, and silenced GORM logging (the
// application logs through zap instead).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
