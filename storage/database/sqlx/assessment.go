package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
)

type assessmentRepository struct {
	db     *sqlx.DB
	logger core.Logger
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *sqlx.DB, logger core.Logger) assessment.Repository {
	return &assessmentRepository{db: db, logger: logger}
}

func (repo *assessmentRepository) QueryAllAssessments(ctx context.Context) ([]assessment.Record, error) {
	return repo.queryRecords(ctx, `SELECT * FROM assessment ORDER BY "Matric", recorded_at`)
}

func (repo *assessmentRepository) QueryAssessmentsByMatric(ctx context.Context, matric string) ([]assessment.Record, error) {
	return repo.queryRecords(ctx, `SELECT * FROM assessment WHERE lower("Matric") = lower($1) ORDER BY recorded_at`, matric)
}

func (repo *assessmentRepository) CreateAssessment(ctx context.Context, rec assessment.Record) (assessment.Record, error) {
	rec.ID = uuid.New().String()
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	args := []interface{}{rec.ID, rec.Matric, string(rec.Type), string(rec.Scoring)}
	for _, score := range rec.Scores {
		cell := ""
		if score.Valid {
			cell = strconv.FormatFloat(score.Float64, 'f', -1, 64)
		}
		args = append(args, cell)
	}
	args = append(args, rec.RecordedAt)

	q := `INSERT INTO assessment
		(id, "Matric", "Assessment Type", "Scoring Type",
		 "PLO1", "PLO2", "PLO3", "PLO4", "PLO5", "PLO6", "PLO7", "PLO8", "PLO9", "PLO10", "PLO11",
		 recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return assessment.Record{}, errors.Wrap(err, "inserting assessment row")
	}
	return rec, nil
}

// GetCQIAlert returns the zero value when no alert row exists yet; absence is the
// normal initial state, not an error.
func (repo *assessmentRepository) GetCQIAlert(ctx context.Context, matric string, typ assessment.Type) (assessment.CQIAlert, error) {
	var row struct {
		Matric string    `db:"matric"`
		Type   string    `db:"assessment_type"`
		Status string    `db:"status"`
		SentAt null.Time `db:"sent_at"`
	}
	q := `SELECT * FROM cqi_alert WHERE lower(matric) = lower($1) AND assessment_type = $2`
	err := repo.db.GetContext(ctx, &row, q, matric, string(typ))
	if err != nil {
		if err == sql.ErrNoRows {
			return assessment.CQIAlert{}, nil
		}
		return assessment.CQIAlert{}, errors.Wrap(err, "querying cqi alert")
	}
	return assessment.CQIAlert{
		Matric: row.Matric,
		Type:   assessment.Type(row.Type),
		Status: row.Status,
		SentAt: row.SentAt,
	}, nil
}

// markCQIAlertQuery renders the conditional alert upsert; the update arm is a no-op
// when the flag already reads FlagSent, whoever set it.
func markCQIAlertQuery() string {
	return fmt.Sprintf(`INSERT INTO cqi_alert (matric, assessment_type, status, sent_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (matric, assessment_type) DO UPDATE
		SET status = EXCLUDED.status, sent_at = EXCLUDED.sent_at
		WHERE cqi_alert.status IS DISTINCT FROM '%s'`, assessment.FlagSent)
}

func (repo *assessmentRepository) MarkCQIAlert(ctx context.Context, matric string, typ assessment.Type, status string, at time.Time) (bool, error) {
	res, err := repo.db.ExecContext(ctx, markCQIAlertQuery(), matric, string(typ), status, at)
	if err != nil {
		return false, errors.Wrap(err, "upserting cqi alert")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "checking rows affected")
	}
	return n > 0, nil
}

func (repo *assessmentRepository) queryRecords(ctx context.Context, q string, args ...interface{}) ([]assessment.Record, error) {
	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessment rows")
	}
	defer func() { _ = rows.Close() }()

	var records []assessment.Record
	for rows.Next() {
		fields := make(map[string]interface{})
		if err := rows.MapScan(fields); err != nil {
			return nil, errors.Wrap(err, "scanning assessment row")
		}
		records = append(records, repo.parseRow(fields))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading assessment rows")
	}
	return records, nil
}

// parseRow turns one raw field-map into a Record. An unscored or unparseable PLO
// cell stays null so it never weighs into an average as zero.
func (repo *assessmentRepository) parseRow(fields map[string]interface{}) assessment.Record {
	rec := assessment.Record{
		ID:         cellString(fields, "id"),
		Matric:     cellString(fields, "Matric"),
		Type:       assessment.Type(cellString(fields, "Assessment Type")),
		Scoring:    assessment.ScoringType(cellString(fields, "Scoring Type")),
		RecordedAt: cellTime(fields, "recorded_at"),
	}
	for i := 0; i < assessment.NumPLOs; i++ {
		name := fmt.Sprintf("PLO%d", i+1)
		raw := cellString(fields, name)
		if raw == "" {
			continue
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			repo.logger.Warn(fmt.Sprintf("unparseable score cell %q = %q for %q; treating as unscored", name, raw, rec.Matric))
			continue
		}
		rec.Scores[i] = null.Float64From(val)
	}
	return rec
}
