package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-service/internal/domain"
)

// SettlementFilter captures search parameters for payment records.
type SettlementFilter struct {
	PayerID    *string
	Statuses   []domain.SettlementStatus
	Categories []domain.SettlementCategory
	Ward       *string
	PaidFrom   *time.Time
	PaidTo     *time.Time
	Limit      int
	Offset     int
}

// SettlementRepository encapsulates settlement persistence.
type SettlementRepository interface {
	Create(ctx context.Context, settlement *domain.Settlement) error
	Update(ctx context.Context, settlement *domain.Settlement, expectedVersion int) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Settlement, error)
	ListWithFilter(ctx context.Context, filter SettlementFilter) ([]domain.Settlement, error)
}

type settlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository instantiates repository.
func NewSettlementRepository(pool *pgxpool.Pool) SettlementRepository {
	return &settlementRepository{pool: pool}
}

const settlementColumns = `id, transaction_id, payer_id, category, ward,
        base_amount, discount_amount, penalty_amount, total_amount,
        status, due_date, receipt_number, paid_at, version, created_at, updated_at`

func (r *settlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	const query = `
        INSERT INTO settlements (transaction_id, payer_id, category, ward,
            base_amount, discount_amount, penalty_amount, total_amount,
            status, due_date, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		s.TransactionID,
		s.PayerID,
		s.Category,
		s.Ward,
		s.BaseAmount,
		s.Discount,
		s.Penalty,
		s.TotalAmount,
		s.Status,
		s.DueDate,
	).Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
}

func (r *settlementRepository) Update(ctx context.Context, s *domain.Settlement, expectedVersion int) error {
	const query = `
        UPDATE settlements SET base_amount=$1, discount_amount=$2, penalty_amount=$3,
            total_amount=$4, status=$5, receipt_number=$6, paid_at=$7,
            version=version+1, updated_at=NOW()
        WHERE transaction_id=$8 AND version=$9`
	cmd, err := r.pool.Exec(ctx, query,
		s.BaseAmount,
		s.Discount,
		s.Penalty,
		s.TotalAmount,
		s.Status,
		s.ReceiptNumber,
		s.PaidAt,
		s.TransactionID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	s.Version = expectedVersion + 1
	return nil
}

func (r *settlementRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Settlement, error) {
	query := fmt.Sprintf(`SELECT %s FROM settlements WHERE transaction_id=$1`, settlementColumns)
	return scanSettlementRow(r.pool.QueryRow(ctx, query, transactionID))
}

func (r *settlementRepository) ListWithFilter(ctx context.Context, filter SettlementFilter) ([]domain.Settlement, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.PayerID != nil {
		args = append(args, *filter.PayerID)
		clauses = append(clauses, fmt.Sprintf("payer_id=$%d", len(args)))
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
	if filter.Ward != nil {
		args = append(args, *filter.Ward)
		clauses = append(clauses, fmt.Sprintf("ward=$%d", len(args)))
	}
	if filter.PaidFrom != nil {
		args = append(args, *filter.PaidFrom)
		clauses = append(clauses, fmt.Sprintf("paid_at >= $%d", len(args)))
	}
	if filter.PaidTo != nil {
		args = append(args, *filter.PaidTo)
		clauses = append(clauses, fmt.Sprintf("paid_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM settlements WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		settlementColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSettlements(rows)
}

func scanSettlements(rows pgx.Rows) ([]domain.Settlement, error) {
	var result []domain.Settlement
	for rows.Next() {
		s, err := scanSettlementRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func scanSettlementRow(row rowScanner) (*domain.Settlement, error) {
	var s domain.Settlement
	if err := row.Scan(
		&s.ID,
		&s.TransactionID,
		&s.PayerID,
		&s.Category,
		&s.Ward,
		&s.BaseAmount,
		&s.Discount,
		&s.Penalty,
		&s.TotalAmount,
		&s.Status,
		&s.DueDate,
		&s.ReceiptNumber,
		&s.PaidAt,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
