package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
	dummydb "github.com/hazwanihanafi-commits/PPBMS-sub000/storage/database/dummy"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(
	t *testing.T,
	db *dummydb.DB,
	matric, name, email, supEmail, programme string,
	start time.Time,
) student.Record {
	t.Helper()
	rec := student.Record{
		Matric:          matric,
		Name:            name,
		Email:           email,
		SupervisorEmail: supEmail,
		Programme:       programme,
		Status:          student.StatusActive,
	}
	if !start.IsZero() {
		rec.StartDate = null.TimeFrom(start.UTC())
	}
	return dummydb.SeedStudent(db, rec)
}

func CreateAssessment(
	t *testing.T,
	repo assessment.Repository,
	matric string,
	typ assessment.Type,
	scoring assessment.ScoringType,
	scores map[int]float64, // 1-based PLO number -> raw value
) assessment.Record {
	t.Helper()
	rec := assessment.Record{
		Matric:  matric,
		Type:    typ,
		Scoring: scoring,
	}
	for plo, val := range scores {
		if plo < 1 || plo > assessment.NumPLOs {
			t.Fatalf("CreateAssessment() bad PLO number %d", plo)
		}
		rec.Scores[plo-1] = null.Float64From(val)
	}
	rec, err := repo.CreateAssessment(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return rec
}
