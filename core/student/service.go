package student

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
)

type (
	// Repository is the row store gateway for the tracking table. Implementations
	// parse raw cells into Records at this boundary; the rest of the core never sees
	// untyped field-maps. MarkDelayNotified must be conditional: it only writes when
	// the flag is not already FlagSent and reports whether a write happened.
	Repository interface {
		QueryAllStudents(ctx context.Context) ([]Record, error)
		QueryStudentsByProgramme(ctx context.Context, programme string) ([]Record, error)
		GetStudentByMatric(ctx context.Context, matric string) (Record, error)
		GetStudentByEmail(ctx context.Context, email string) (Record, error)
		SetMilestoneActual(ctx context.Context, matric string, def MilestoneDefinition, actual time.Time) error
		MarkDelayNotified(ctx context.Context, matric string, def MilestoneDefinition, flag string, at time.Time) (bool, error)
	}

	Service interface {
		QueryAll(ctx context.Context) ([]Record, error)
		QueryByProgramme(ctx context.Context, programme string) ([]Record, error)
		GetByMatric(ctx context.Context, matric string) (Record, error)
		GetByEmail(ctx context.Context, email string) (Record, error)
		// Timeline builds the milestone timeline for one student against their plan.
		Timeline(ctx context.Context, matric string) ([]TimelineEntry, error)
		// RecordMilestone sets a milestone's actual completion date.
		RecordMilestone(ctx context.Context, matric string, key MilestoneKey, actual time.Time) error
		// RunDelayDetection runs one delay-detection pass over the whole tracking
		// table. Only one pass runs at a time; a failure on one student/milestone
		// never aborts the pass.
		RunDelayDetection(ctx context.Context) (core.RunSummary, error)
	}

	// snapshot is an explicit read cache over the tracking table with a timestamp;
	// it reduces read amplification within rapid repeated calls but is dropped at
	// the start of every detection pass so a stale "not sent yet" view can never
	// leak across passes.
	snapshot struct {
		students  []Record
		fetchedAt time.Time
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config

		runMu   sync.Mutex // serializes detection passes
		cacheMu sync.Mutex
		cache   *snapshot

		nowFunc func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
		nowFunc: time.Now,
	}
}

func (svc *service) QueryAll(ctx context.Context) ([]Record, error) {
	return svc.allStudents(ctx, false)
}

func (svc *service) QueryByProgramme(ctx context.Context, programme string) ([]Record, error) {
	return svc.repo.QueryStudentsByProgramme(ctx, core.CleanString(programme))
}

func (svc *service) GetByMatric(ctx context.Context, matric string) (Record, error) {
	return svc.repo.GetStudentByMatric(ctx, core.CleanString(matric, true /* lower */))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Record, error) {
	return svc.repo.GetStudentByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Timeline(ctx context.Context, matric string) ([]TimelineEntry, error) {
	rec, err := svc.GetByMatric(ctx, matric)
	if err != nil {
		return nil, err
	}
	return BuildTimeline(rec, PlanFor(rec), svc.nowFunc().UTC(), svc.conf.Detection.DueSoonWindowDays), nil
}

func (svc *service) RecordMilestone(ctx context.Context, matric string, key MilestoneKey, actual time.Time) error {
	rec, err := svc.GetByMatric(ctx, matric)
	if err != nil {
		return err
	}
	def, ok := PlanFor(rec).Milestone(key)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{
			Field: "milestone",
			Error: fmt.Sprintf("unknown milestone %q for plan %s", key, PlanFor(rec).Name),
		})
	}
	if err := svc.repo.SetMilestoneActual(ctx, rec.Matric, def, core.Midnight(actual.UTC())); err != nil {
		return errors.Wrapf(err, "recording milestone %s for %s", key, rec.Matric)
	}
	svc.invalidateCache()
	return nil
}

func (svc *service) RunDelayDetection(ctx context.Context) (core.RunSummary, error) {
	svc.runMu.Lock()
	defer svc.runMu.Unlock()

	var sum core.RunSummary

	// always refetch at pass start
	students, err := svc.allStudents(ctx, true)
	if err != nil {
		return sum, errors.Wrap(err, "fetching tracking rows")
	}
	today := core.Midnight(svc.nowFunc().UTC())

	for _, rec := range students {
		sum.Processed++
		plan := PlanFor(rec)
		notices := DetectDelays(rec, plan, today)
		if len(notices) == 0 {
			sum.Skipped++
			continue
		}

		// A row without a deliverable student address must not burn the sent gate:
		// flag FAILED so a later pass retries once the cell is fixed.
		if _, err := mail.ParseAddress(rec.Email); err != nil {
			for _, n := range notices {
				def, _ := plan.Milestone(n.Key)
				if _, err := svc.repo.MarkDelayNotified(ctx, rec.Matric, def, FlagFailed, today); err != nil {
					svc.logger.Error(fmt.Sprintf("marking delay failed %s/%s: %v", rec.Matric, n.Key, err), err)
				}
			}
			sum.Failed++
			svc.logger.Warn(fmt.Sprintf("invalid student email %q for %s; delay notice flagged %s", rec.Email, rec.Matric, FlagFailed))
			continue
		}

		// Flag each milestone as notified before sending: a crash after the write
		// but before the send loses one notice, a crash the other way around sends
		// duplicates. At-most-once wins.
		flagged := make([]DelayNotice, 0, len(notices))
		for _, n := range notices {
			def, _ := plan.Milestone(n.Key)
			wrote, err := svc.repo.MarkDelayNotified(ctx, rec.Matric, def, FlagSent, today)
			if err != nil {
				sum.Failed++
				svc.logger.Error(fmt.Sprintf("marking delay notified %s/%s: %v", rec.Matric, n.Key, err), err)
				continue
			}
			if !wrote { // a concurrent pass got there first
				continue
			}
			flagged = append(flagged, n)
		}
		if len(flagged) == 0 {
			sum.Skipped++
			continue
		}

		if err := svc.sendDelayNotice(rec, flagged); err != nil {
			sum.Failed++
			svc.logger.Error(fmt.Sprintf("sending delay notice to %s: %v", rec.Matric, err), err)
			continue
		}
		sum.Notified++
	}

	svc.logger.Info("delay detection pass done: " + sum.String())
	return sum, nil
}

type delayMailData struct {
	Name    string
	Notices []DelayNotice
}

// sendDelayNotice batches all of a student's overdue milestones into one message,
// copying the supervisor when their address is validly formed. A missing or malformed
// supervisor address downgrades to student-only; it never fails the batch.
func (svc *service) sendDelayNotice(rec Record, notices []DelayNotice) error {
	to, err := mail.ParseAddress(rec.Email)
	if err != nil {
		return errors.Wrapf(err, "invalid student email %q", rec.Email)
	}
	to.Name = rec.Name

	var cc []mail.Address
	if sup, err := mail.ParseAddress(rec.SupervisorEmail); err == nil {
		cc = append(cc, *sup)
	} else {
		svc.logger.Warn(fmt.Sprintf("no valid supervisor email for %s; notifying student only", rec.Matric))
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*to},
		Cc:           cc,
		Subject:      "Milestone delay notice",
		TemplateName: "delay-notice",
		TemplateData: delayMailData{Name: rec.Name, Notices: notices},
	})
	return nil
}

func (svc *service) allStudents(ctx context.Context, fresh bool) ([]Record, error) {
	svc.cacheMu.Lock()
	defer svc.cacheMu.Unlock()

	ttl := svc.conf.Detection.ReadCacheTTL
	if !fresh && svc.cache != nil && ttl > 0 && svc.nowFunc().Sub(svc.cache.fetchedAt) < ttl {
		return svc.cache.students, nil
	}

	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, err
	}
	svc.cache = &snapshot{students: students, fetchedAt: svc.nowFunc()}
	return students, nil
}

func (svc *service) invalidateCache() {
	svc.cacheMu.Lock()
	svc.cache = nil
	svc.cacheMu.Unlock()
}
