package dummydb

import (
	"sync"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
)

type (
	DB struct {
		tracking   *trackingTable
		assessment *assessmentTable
		user       *userTable
	}

	trackingTable struct {
		sync.RWMutex
		table map[string]*student.Record // keyed by lowercased Matric
	}

	assessmentTable struct {
		sync.RWMutex
		records []assessment.Record
		alerts  map[alertKey]*assessment.CQIAlert
	}

	alertKey struct {
		matric string
		typ    assessment.Type
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
)

func Open() (*DB, error) {
	db := &DB{
		tracking:   &trackingTable{table: make(map[string]*student.Record)},
		assessment: &assessmentTable{alerts: make(map[alertKey]*assessment.CQIAlert)},
		user:       &userTable{table: make(map[string]*user.User)},
	}
	return db, nil
}
