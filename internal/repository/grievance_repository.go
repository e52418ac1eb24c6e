package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-service/internal/domain"
)

// ErrVersionConflict signals an optimistic-concurrency failure: the record
// changed between read and write. It is distinct from not-found so callers
// can retry the whole operation.
var ErrVersionConflict = errors.New("record version conflict")

// GrievanceFilter captures staff search parameters.
type GrievanceFilter struct {
	RequesterID *string
	Statuses    []domain.GrievanceStatus
	Categories  []domain.GrievanceCategory
	Department  *domain.Department
	Ward        *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// GrievanceRepository encapsulates grievance persistence.
type GrievanceRepository interface {
	Create(ctx context.Context, grievance *domain.Grievance) error
	Update(ctx context.Context, grievance *domain.Grievance, expectedVersion int) error
	GetByNumber(ctx context.Context, number string) (*domain.Grievance, error)
	ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error)
}

type grievanceRepository struct {
	pool *pgxpool.Pool
}

// NewGrievanceRepository instantiates repository.
func NewGrievanceRepository(pool *pgxpool.Pool) GrievanceRepository {
	return &grievanceRepository{pool: pool}
}

const grievanceColumns = `id, number, requester_id, category, kind, description,
        address, landmark, latitude, longitude, ward, attachments,
        status, priority, priority_score, priority_signals, department,
        commitment_due, assignee_id, audit_trail, resolution, feedback,
        version, created_at, updated_at`

func (r *grievanceRepository) Create(ctx context.Context, g *domain.Grievance) error {
	auditJSON, err := json.Marshal(g.AuditTrail)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO grievances (number, requester_id, category, kind, description,
            address, landmark, latitude, longitude, ward, attachments,
            status, priority, priority_score, priority_signals, department,
            commitment_due, assignee_id, audit_trail, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		g.Number,
		g.RequesterID,
		g.Category,
		g.Kind,
		g.Description,
		g.Location.Address,
		g.Location.Landmark,
		g.Location.Latitude,
		g.Location.Longitude,
		g.Location.Ward,
		g.Attachments,
		g.Status,
		g.Priority,
		g.PriorityScore,
		g.PrioritySignals,
		g.Department,
		g.CommitmentDue,
		g.AssigneeID,
		auditJSON,
	).Scan(&g.ID, &g.Version, &g.CreatedAt, &g.UpdatedAt)
}

// Update writes mutable fields under an optimistic version check. The
// write-once fields (number, score, signals, commitment deadline) are never
// part of the update set.
func (r *grievanceRepository) Update(ctx context.Context, g *domain.Grievance, expectedVersion int) error {
	auditJSON, err := json.Marshal(g.AuditTrail)
	if err != nil {
		return err
	}
	var resolutionJSON, feedbackJSON []byte
	if g.Resolution != nil {
		if resolutionJSON, err = json.Marshal(g.Resolution); err != nil {
			return err
		}
	}
	if g.Feedback != nil {
		if feedbackJSON, err = json.Marshal(g.Feedback); err != nil {
			return err
		}
	}

	const query = `
        UPDATE grievances SET status=$1, priority=$2, department=$3, assignee_id=$4,
            audit_trail=$5, resolution=$6, feedback=$7, version=version+1, updated_at=NOW()
        WHERE number=$8 AND version=$9`
	cmd, err := r.pool.Exec(ctx, query,
		g.Status,
		g.Priority,
		g.Department,
		g.AssigneeID,
		auditJSON,
		resolutionJSON,
		feedbackJSON,
		g.Number,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	g.Version = expectedVersion + 1
	return nil
}

func (r *grievanceRepository) GetByNumber(ctx context.Context, number string) (*domain.Grievance, error) {
	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE number=$1`, grievanceColumns)
	return scanGrievanceRow(r.pool.QueryRow(ctx, query, number))
}

func (r *grievanceRepository) ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.Ward != nil {
		args = append(args, *filter.Ward)
		clauses = append(clauses, fmt.Sprintf("ward=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		grievanceColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Grievance
	for rows.Next() {
		g, err := scanGrievanceRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrievanceRow(row rowScanner) (*domain.Grievance, error) {
	var g domain.Grievance
	var auditJSON, resolutionJSON, feedbackJSON []byte
	if err := row.Scan(
		&g.ID,
		&g.Number,
		&g.RequesterID,
		&g.Category,
		&g.Kind,
		&g.Description,
		&g.Location.Address,
		&g.Location.Landmark,
		&g.Location.Latitude,
		&g.Location.Longitude,
		&g.Location.Ward,
		&g.Attachments,
		&g.Status,
		&g.Priority,
		&g.PriorityScore,
		&g.PrioritySignals,
		&g.Department,
		&g.CommitmentDue,
		&g.AssigneeID,
		&auditJSON,
		&resolutionJSON,
		&feedbackJSON,
		&g.Version,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(auditJSON) > 0 {
		if err := json.Unmarshal(auditJSON, &g.AuditTrail); err != nil {
			return nil, err
		}
	}
	if len(resolutionJSON) > 0 {
		if err := json.Unmarshal(resolutionJSON, &g.Resolution); err != nil {
			return nil, err
		}
	}
	if len(feedbackJSON) > 0 {
		if err := json.Unmarshal(feedbackJSON, &g.Feedback); err != nil {
			return nil, err
		}
	}
	return &g, nil
}
