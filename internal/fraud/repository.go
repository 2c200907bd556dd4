package fraud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/database"
)

const alertColumns = `
	id, user_id, business_id, event_type, alert_type, alert_level, status,
	description, details, risk_score, detected_at`

// Repository persists fraud alerts raised by the review pipeline
type Repository struct {
	db database.DBTX
}

// NewRepository creates a new fraud repository
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// CreateFraudAlert stores an alert. Replays of the same alert ID are ignored.
func (r *Repository) CreateFraudAlert(ctx context.Context, alert *FraudAlert) error {
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return fmt.Errorf("marshal alert details: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO fraud_alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		alert.ID,
		alert.UserID,
		alert.BusinessID,
		alert.EventType,
		alert.AlertType,
		alert.AlertLevel,
		alert.Status,
		alert.Description,
		details,
		alert.RiskScore,
		alert.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud alert: %w", err)
	}
	return nil
}

// GetAlertsByUser returns a page of a user's alerts, newest first, with the
// user's total alert count
func (r *Repository) GetAlertsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudAlert, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM fraud_alerts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count fraud alerts: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM fraud_alerts
		WHERE user_id = $1
		ORDER BY detected_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list fraud alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*FraudAlert, 0, limit)
	for rows.Next() {
		var a FraudAlert
		var details []byte
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.BusinessID, &a.EventType, &a.AlertType, &a.AlertLevel,
			&a.Status, &a.Description, &details, &a.RiskScore, &a.DetectedAt,
		); err != nil {
			return nil, 0, err
		}
		// corrupt details decode to an empty map
		if json.Unmarshal(details, &a.Details) != nil || a.Details == nil {
			a.Details = map[string]interface{}{}
		}
		alerts = append(alerts, &a)
	}

	return alerts, total, rows.Err()
}
