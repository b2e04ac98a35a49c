package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// MySQLOptions describes the relational store connection.
type MySQLOptions struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	MaxConns int
}

// DSN renders the go-sql-driver connection string.  clientFoundRows makes
// UPDATE report matched rows instead of changed rows, so rewriting a
// lodging with identical values still counts as found.
func (o MySQLOptions) DSN() string {
	auth := o.User
	if o.Password != "" {
		auth = fmt.Sprintf("%s:%s", o.User, o.Password)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&clientFoundRows=true",
		auth, o.Host, o.Port, o.Name)
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(o MySQLOptions) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	maxConns := o.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
