package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Embedding columns are JSONB. The corpus is board-sized, so ranking runs in
// process over one snapshot and the database only stores and filters.

func encodeJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	return raw, nil
}

func decodeDense(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode dense vector: %w", err)
	}
	return out, nil
}

func decodeSparse(raw []byte) (map[int]float32, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[int]float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode sparse vector: %w", err)
	}
	return out, nil
}
