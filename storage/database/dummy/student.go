package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
)

type studentRepository struct {
	db *trackingTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.tracking}
}

// SeedStudent inserts a tracking row directly; test fixtures only.
func SeedStudent(db *DB, rec student.Record) student.Record {
	db.tracking.Lock()
	defer db.tracking.Unlock()

	if rec.Milestones == nil {
		rec.Milestones = make(map[student.MilestoneKey]student.MilestoneDates)
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	db.tracking.table[strings.ToLower(rec.Matric)] = &rec
	return rec
}

func (repo *studentRepository) query() []student.Record {
	records := make([]student.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		records = append(records, cloneRecord(*rec))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Matric < records[j].Matric })
	return records
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) QueryStudentsByProgramme(ctx context.Context, programme string) ([]student.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []student.Record
	for _, rec := range repo.query() {
		if rec.Programme == programme {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (repo *studentRepository) GetStudentByMatric(ctx context.Context, matric string) (student.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[strings.ToLower(matric)]; ok {
		return cloneRecord(*rec), nil
	}
	return student.Record{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByEmail(ctx context.Context, email string) (student.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if strings.EqualFold(rec.Email, email) {
			return cloneRecord(*rec), nil
		}
	}
	return student.Record{}, student.ErrNotFound
}

func (repo *studentRepository) SetMilestoneActual(ctx context.Context, matric string, def student.MilestoneDefinition, actual time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[strings.ToLower(matric)]
	if !ok {
		return student.ErrNotFound
	}
	dates := rec.Milestones[def.Key]
	dates.Actual = null.TimeFrom(core.Midnight(actual))
	rec.Milestones[def.Key] = dates
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *studentRepository) MarkDelayNotified(ctx context.Context, matric string, def student.MilestoneDefinition, flag string, at time.Time) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[strings.ToLower(matric)]
	if !ok {
		return false, student.ErrNotFound
	}
	dates := rec.Milestones[def.Key]
	if dates.DelayNotified == student.FlagSent {
		return false, nil // already claimed
	}
	dates.DelayNotified = flag
	dates.DelayNotifAt = null.TimeFrom(at)
	rec.Milestones[def.Key] = dates
	rec.UpdatedAt = time.Now().UTC()
	return true, nil
}

func cloneRecord(rec student.Record) student.Record {
	milestones := make(map[student.MilestoneKey]student.MilestoneDates, len(rec.Milestones))
	for key, dates := range rec.Milestones {
		milestones[key] = dates
	}
	rec.Milestones = milestones
	return rec
}
