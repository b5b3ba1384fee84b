package llm

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CallLog records one LLM round trip for audit and prompt debugging.
type CallLog struct {
	PromptName    string
	PromptVersion string
	Model         string
	InputPayload  string
	OutputPayload string
	LatencyMS     int64
	CreatedAt     time.Time
}

// CallLogStore persists LLM call records.
type CallLogStore struct {
	db *sql.DB
}

// NewCallLogStore creates a new call log store.
func NewCallLogStore(db *sql.DB) *CallLogStore {
	return &CallLogStore{db: db}
}

// Record saves one call record.
func (s *CallLogStore) Record(ctx context.Context, entry CallLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_call_log (prompt_name, prompt_version, model, input_payload, output_payload, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.PromptName, entry.PromptVersion, entry.Model,
		entry.InputPayload, entry.OutputPayload, entry.LatencyMS, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert llm call log: %w", err)
	}
	return nil
}
