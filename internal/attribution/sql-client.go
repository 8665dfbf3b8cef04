// Package attribution records every form submission, with its decoded
// inviter identity, into the marketing database. Strictly a
// side-channel: captures are fire-and-forget and never block or fail a
// registration.
package attribution

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"doorlist/entity"
	"doorlist/internal/config"
)

type MySql struct {
	db    *sql.DB
	table string
	stmt  *sql.Stmt
	mu    sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.Attribution.Enabled {
		return nil, fmt.Errorf("attribution client is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.Attribution.UserName, conf.Attribution.Password,
		conf.Attribution.HostName, conf.Attribution.Port, conf.Attribution.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:    db,
		table: conf.Attribution.Table,
	}
	if err = sdb.ensureTable(); err != nil {
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	_ = s.db.Close()
}

func (s *MySql) ensureTable() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INT AUTO_INCREMENT PRIMARY KEY,
		event_ref VARCHAR(64) NOT NULL DEFAULT '',
		inviter_name VARCHAR(255) NOT NULL DEFAULT '',
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		country_code VARCHAR(16) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`, s.table)
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("create attribution table: %w", err)
	}
	return nil
}

func (s *MySql) insertStmt() (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stmt != nil {
		return s.stmt, nil
	}
	query := fmt.Sprintf(`INSERT INTO %s
		(event_ref, inviter_name, first_name, last_name, phone, country_code, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.stmt = stmt
	return stmt, nil
}

// Capture stores one submission row.
func (s *MySql) Capture(rec *entity.Registration) error {
	stmt, err := s.insertStmt()
	if err != nil {
		return err
	}
	_, err = stmt.Exec(
		rec.StoreRef,
		rec.InviterName,
		rec.FirstName,
		rec.LastName,
		rec.PhoneDigits(),
		rec.CountryCode,
		rec.Email,
		time.Now(),
	)
	return err
}
