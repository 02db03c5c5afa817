package student

import (
	"time"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service with a fixed clock for date-sensitive tests.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config, now func() time.Time) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			logger:  logger,
			conf:    conf,
			nowFunc: now,
		},
	}
}
