package dummydb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
)

var pkCount int

type assessmentRepository struct {
	db *assessmentTable
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db.assessment}
}

func (repo *assessmentRepository) QueryAllAssessments(ctx context.Context) ([]assessment.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]assessment.Record, len(repo.db.records))
	copy(records, repo.db.records)
	return records, nil
}

func (repo *assessmentRepository) QueryAssessmentsByMatric(ctx context.Context, matric string) ([]assessment.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []assessment.Record
	for _, rec := range repo.db.records {
		if strings.EqualFold(rec.Matric, matric) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (repo *assessmentRepository) CreateAssessment(ctx context.Context, rec assessment.Record) (assessment.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pkCount++
	rec.ID = strconv.Itoa(pkCount)
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	repo.db.records = append(repo.db.records, rec)
	return rec, nil
}

func (repo *assessmentRepository) GetCQIAlert(ctx context.Context, matric string, typ assessment.Type) (assessment.CQIAlert, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if alert, ok := repo.db.alerts[alertKey{matric: strings.ToLower(matric), typ: typ}]; ok {
		return *alert, nil
	}
	return assessment.CQIAlert{}, nil
}

func (repo *assessmentRepository) MarkCQIAlert(ctx context.Context, matric string, typ assessment.Type, status string, at time.Time) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := alertKey{matric: strings.ToLower(matric), typ: typ}
	if alert, ok := repo.db.alerts[key]; ok && alert.Status == assessment.FlagSent {
		return false, nil // already claimed
	}
	repo.db.alerts[key] = &assessment.CQIAlert{
		Matric: matric,
		Type:   typ,
		Status: status,
		SentAt: null.TimeFrom(at),
	}
	return true, nil
}
