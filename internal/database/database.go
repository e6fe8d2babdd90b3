package database

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "briscola_results"

// Service stores finished game results. It supports the sqlite3 driver (the
// default, file-backed) and pgx for a shared Postgres instance.
type Service struct {
	db     *sql.DB
	m      sync.Mutex
	driver string
}

// New opens the results database and ensures the schema exists.
func New(driver, dsn string) (*Service, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}

	s := &Service{db: db, driver: driver}

	sqlStmt := `
	create table if not exists ` + tableName + ` (
		id text not null primary key,
		created_at text,
		player1 text,
		player2 text,
		player1_score integer,
		player2_score integer,
		winner text
	);
	`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return s, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for drivers that need it.
func (s *Service) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Service) Insert(result GameResult) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec(s.rebind("INSERT INTO "+tableName+
		" (id, created_at, player1, player2, player1_score, player2_score, winner) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		result.ID,
		result.CreatedAt,
		result.Player1,
		result.Player2,
		result.Player1Score,
		result.Player2Score,
		result.Winner)
	return err
}

func (s *Service) GetAll() ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT id, created_at, player1, player2, player1_score, player2_score, winner FROM " + tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

func (s *Service) GetByID(id string) (GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var result GameResult
	err := s.db.QueryRow(s.rebind("SELECT id, created_at, player1, player2, player1_score, player2_score, winner FROM "+
		tableName+" WHERE id = ?"), id).Scan(
		&result.ID,
		&result.CreatedAt,
		&result.Player1,
		&result.Player2,
		&result.Player1Score,
		&result.Player2Score,
		&result.Winner)
	if err != nil {
		return GameResult{}, err
	}
	return result, nil
}

func (s *Service) GetByPlayer(playerName string) ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query(s.rebind("SELECT id, created_at, player1, player2, player1_score, player2_score, winner FROM "+
		tableName+" WHERE player1 = ? OR player2 = ?"),
		playerName,
		playerName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, sql.ErrNoRows // No results found
	}
	return results, nil
}

func scanResults(rows *sql.Rows) ([]GameResult, error) {
	var results []GameResult
	for rows.Next() {
		var result GameResult
		if err := rows.Scan(
			&result.ID,
			&result.CreatedAt,
			&result.Player1,
			&result.Player2,
			&result.Player1Score,
			&result.Player2Score,
			&result.Winner); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
