// The logs table is append-only. Every mutating action in the system leaves
// one row here with before/after snapshots; rows are never updated or
// deleted. Entity type and id are polymorphic so one table serves the whole
// application.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/deolamide/wallex/internal/models"
)

type LogRepository interface {
	Insert(log *models.Log) (*models.Log, error)
	GetAllByEntity(entityType, entityID string) ([]models.Log, error)
	CountConsecutiveFailedLogins(userID string, limit int) (int, error)
}

type LogRepositoryImpl struct {
	db *sqlx.DB
}

func NewLogRepository(db *sqlx.DB) LogRepository {
	return &LogRepositoryImpl{db: db}
}

func (repo *LogRepositoryImpl) Insert(log *models.Log) (*models.Log, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var inserted models.Log

	query := `
		INSERT INTO logs (user_id, action, entity_type, entity_id, old_value, new_value, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`

	err := repo.db.GetContext(ctx, &inserted, query,
		log.UserID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.OldValue,
		log.NewValue,
		log.IPAddress,
		log.UserAgent,
	)
	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

// GetAllByEntity returns an entity's audit trail in commit order.
func (repo *LogRepositoryImpl) GetAllByEntity(entityType, entityID string) ([]models.Log, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var logs []models.Log

	query := `
		SELECT * FROM logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &logs, query, entityType, entityID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// CountConsecutiveFailedLogins looks at the user's most recent login actions,
// up to limit, and counts failures until the first success. The caller passes
// its lockout threshold as the limit so the window cannot drift from it.
func (repo *LogRepositoryImpl) CountConsecutiveFailedLogins(userID string, limit int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var actions []string

	query := `
		SELECT action FROM logs
		WHERE user_id = $1 AND entity_type = $2 AND action IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT $5`

	err := repo.db.SelectContext(ctx, &actions, query,
		userID, models.LogEntityUser, models.LogActionLogin, models.LogActionFailedLogin, limit)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, action := range actions {
		if action != models.LogActionFailedLogin {
			break
		}
		count++
	}

	return count, nil
}
