package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, symbol, side, entry_time, entry_price, exit_time, exit_price, size, fees, pnl, balance_after, reason
		FROM trades
		WHERE trade_id = ?`, tradeID)

	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Side,
		&rec.EntryTime,
		&rec.EntryPrice,
		&rec.ExitTime,
		&rec.ExitPrice,
		&rec.Size,
		&rec.Fees,
		&rec.PnL,
		&rec.BalanceAfter,
		&rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose exit_time is within
// [start, end), oldest first.
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, entry_time, entry_price, exit_time, exit_price, size, fees, pnl, balance_after, reason
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Symbol,
			&rec.Side,
			&rec.EntryTime,
			&rec.EntryPrice,
			&rec.ExitTime,
			&rec.ExitPrice,
			&rec.Size,
			&rec.Fees,
			&rec.PnL,
			&rec.BalanceAfter,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity snapshots within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, equity
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var snap EquitySnapshot
		if err := rows.Scan(&snap.Time, &snap.Balance, &snap.Equity); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
