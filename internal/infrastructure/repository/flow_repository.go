package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wa-order-bridge/internal/domain"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// GetFlowState loads the customer's dialogue position. A missing row is the
// idle state, not an error.
func (p *Postgres) GetFlowState(ctx context.Context, customerID int64) (domain.FlowState, error) {
	var (
		flowName string
		step     string
		raw      []byte
	)
	err := p.pool.QueryRow(ctx,
		"SELECT flow_name, step, data FROM flow_state WHERE customer_id = $1",
		customerID,
	).Scan(&flowName, &step, &raw)
	if isNoRows(err) {
		return domain.Idle(), nil
	}
	if err != nil {
		return domain.Idle(), fmt.Errorf("loading flow state: %w", err)
	}

	var data map[string]string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return domain.Idle(), fmt.Errorf("decoding flow state data: %w", err)
		}
	}
	return domain.FlowStateFromRow(flowName, step, data), nil
}

// SetFlowState persists the customer's dialogue position. Persisting the
// idle state deletes the row instead.
func (p *Postgres) SetFlowState(ctx context.Context, customerID int64, state domain.FlowState) error {
	flowName, step := state.Row()
	if flowName == "" {
		return p.ClearFlowState(ctx, customerID)
	}

	data := state.Data
	if data == nil {
		data = map[string]string{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding flow state data: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO flow_state (customer_id, flow_name, step, data, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (customer_id) DO UPDATE
			SET flow_name = EXCLUDED.flow_name,
			    step = EXCLUDED.step,
			    data = EXCLUDED.data,
			    updated_at = now()
	`, customerID, flowName, step, raw)
	if err != nil {
		return fmt.Errorf("saving flow state: %w", err)
	}
	return nil
}

// ClearFlowState removes the customer's dialogue position, returning them to
// idle. Clearing an absent row is a no-op.
func (p *Postgres) ClearFlowState(ctx context.Context, customerID int64) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM flow_state WHERE customer_id = $1", customerID)
	if err != nil {
		return fmt.Errorf("clearing flow state: %w", err)
	}
	return nil
}
