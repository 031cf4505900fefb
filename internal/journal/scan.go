package journal

import (
	"database/sql"
	"fmt"
	"time"

	"customsflow/internal/customs"
	"customsflow/internal/events"
)

const entryColumns = "id, session_id, bus_seq, kind, declaration_id, from_status, to_status, transaction_id, occurred_at"

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var (
			entry       Entry
			kind        string
			from        sql.NullString
			to          sql.NullString
			transaction sql.NullString
			occurredRaw string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.Seq,
			&kind,
			&entry.DeclarationID,
			&from,
			&to,
			&transaction,
			&occurredRaw,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		occurred, err := time.Parse(time.RFC3339Nano, occurredRaw)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurredRaw, err)
		}
		entry.Kind = events.Kind(kind)
		entry.From = customs.Status(from.String)
		entry.To = customs.Status(to.String)
		entry.TransactionID = transaction.String
		entry.OccurredAt = occurred
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
