package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
)

// cellDateFormat is the layout written back into sheet date cells. Reads accept
// every layout core.ParseCellDate knows, including spreadsheet serials.
const cellDateFormat = "2006-01-02"

type studentRepository struct {
	db     *sqlx.DB
	logger core.Logger
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB, logger core.Logger) student.Repository {
	return &studentRepository{db: db, logger: logger}
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Record, error) {
	return repo.queryRecords(ctx, `SELECT * FROM tracking ORDER BY "Matric"`)
}

func (repo *studentRepository) QueryStudentsByProgramme(ctx context.Context, programme string) ([]student.Record, error) {
	return repo.queryRecords(ctx, `SELECT * FROM tracking WHERE "Programme" = $1 ORDER BY "Matric"`, programme)
}

func (repo *studentRepository) GetStudentByMatric(ctx context.Context, matric string) (student.Record, error) {
	return repo.getRecord(ctx, `SELECT * FROM tracking WHERE lower("Matric") = lower($1)`, matric)
}

func (repo *studentRepository) GetStudentByEmail(ctx context.Context, email string) (student.Record, error) {
	return repo.getRecord(ctx, `SELECT * FROM tracking WHERE lower("Email") = lower($1)`, email)
}

func (repo *studentRepository) SetMilestoneActual(ctx context.Context, matric string, def student.MilestoneDefinition, actual time.Time) error {
	q := fmt.Sprintf(
		`UPDATE tracking SET %s = $1, updated_at = now() WHERE lower("Matric") = lower($2)`,
		pq.QuoteIdentifier(def.ActualColumn),
	)
	res, err := repo.db.ExecContext(ctx, q, actual.Format(cellDateFormat), matric)
	if err != nil {
		return errors.Wrap(err, "updating tracking row")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

// markDelayNotifiedQuery renders the conditional flag write for one milestone. The
// guard keeps the write a no-op when the flag column already reads FlagSent, whoever
// set it, so overlapping passes cannot both claim the same row.
func markDelayNotifiedQuery(def student.MilestoneDefinition) string {
	return fmt.Sprintf(
		`UPDATE tracking SET %[1]s = $1, %[2]s = $2, updated_at = now()
		 WHERE lower("Matric") = lower($3) AND %[1]s IS DISTINCT FROM '%[3]s'`,
		pq.QuoteIdentifier(def.DelaySentColumn),
		pq.QuoteIdentifier(def.DelaySentDateColumn),
		student.FlagSent,
	)
}

func (repo *studentRepository) MarkDelayNotified(ctx context.Context, matric string, def student.MilestoneDefinition, flag string, at time.Time) (bool, error) {
	res, err := repo.db.ExecContext(ctx, markDelayNotifiedQuery(def), flag, at.Format(cellDateFormat), matric)
	if err != nil {
		return false, errors.Wrap(err, "updating tracking row")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "checking rows affected")
	}
	return n > 0, nil
}

func (repo *studentRepository) queryRecords(ctx context.Context, q string, args ...interface{}) ([]student.Record, error) {
	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying tracking rows")
	}
	defer func() { _ = rows.Close() }()

	var records []student.Record
	for rows.Next() {
		fields := make(map[string]interface{})
		if err := rows.MapScan(fields); err != nil {
			return nil, errors.Wrap(err, "scanning tracking row")
		}
		records = append(records, repo.parseRow(fields))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading tracking rows")
	}
	return records, nil
}

func (repo *studentRepository) getRecord(ctx context.Context, q string, args ...interface{}) (student.Record, error) {
	records, err := repo.queryRecords(ctx, q, args...)
	if err != nil {
		return student.Record{}, err
	}
	if len(records) == 0 {
		return student.Record{}, student.ErrNotFound
	}
	return records[0], nil
}

// parseRow turns one raw field-map into a Record. All cell parsing happens here:
// a date cell that cannot be parsed is logged and left null, and never fails the row.
func (repo *studentRepository) parseRow(fields map[string]interface{}) student.Record {
	rec := student.Record{
		Matric:          cellString(fields, "Matric"),
		Name:            cellString(fields, "Name"),
		Email:           cellString(fields, "Email"),
		SupervisorEmail: cellString(fields, "Supervisor Email"),
		Programme:       cellString(fields, "Programme"),
		Status:          cellString(fields, "Status"),
		StartDate:       repo.cellDate(fields, "Start Date"),
		Milestones:      make(map[student.MilestoneKey]student.MilestoneDates),
		CreatedAt:       cellTime(fields, "created_at"),
		UpdatedAt:       cellTime(fields, "updated_at"),
	}

	// masters and doctoral plans share column headers; either set of definitions maps
	// the full row
	for _, def := range student.MastersPlan.Milestones {
		rec.Milestones[def.Key] = student.MilestoneDates{
			Expected:      repo.cellDate(fields, def.ExpectedColumn),
			Actual:        repo.cellDate(fields, def.ActualColumn),
			DelayNotified: cellString(fields, def.DelaySentColumn),
			DelayNotifAt:  repo.cellDate(fields, def.DelaySentDateColumn),
		}
	}
	return rec
}

func (repo *studentRepository) cellDate(fields map[string]interface{}, name string) null.Time {
	raw := cellString(fields, name)
	if raw == "" {
		return null.Time{}
	}
	t, err := core.ParseCellDate(raw)
	if err != nil {
		repo.logger.Warn(fmt.Sprintf("unparseable date cell %q = %q for %q; treating as empty", name, raw, cellString(fields, "Matric")))
		return null.Time{}
	}
	return null.TimeFrom(t)
}

func cellString(fields map[string]interface{}, name string) string {
	switch v := fields[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	}
	return ""
}

func cellTime(fields map[string]interface{}, name string) time.Time {
	if t, ok := fields[name].(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}
