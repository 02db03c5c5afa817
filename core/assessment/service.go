package assessment

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
)

type (
	// Repository is the row store gateway for the assessment table and the CQI alert
	// flags. MarkCQIAlert must be conditional: it only writes when the existing flag
	// is not FlagSent and reports whether a write happened, so two concurrent passes
	// cannot both claim the same (student, assessment type) pair.
	Repository interface {
		QueryAllAssessments(ctx context.Context) ([]Record, error)
		QueryAssessmentsByMatric(ctx context.Context, matric string) ([]Record, error)
		CreateAssessment(ctx context.Context, rec Record) (Record, error)
		GetCQIAlert(ctx context.Context, matric string, typ Type) (CQIAlert, error)
		MarkCQIAlert(ctx context.Context, matric string, typ Type, status string, at time.Time) (bool, error)
	}

	// StudentCQI is the per-student CQI view served to the dashboard.
	StudentCQI struct {
		Matric  string      `json:"matric"`
		Results []PLOResult `json:"results"`
		Issues  []PLOResult `json:"issues"`
	}

	Service interface {
		QueryByMatric(ctx context.Context, matric string) ([]Record, error)
		Create(ctx context.Context, nr NewRecord) (Record, error)
		// CQIForStudent aggregates all of a student's assessment records.
		CQIForStudent(ctx context.Context, matric string) (StudentCQI, error)
		// ProgrammeSummary rolls graduate CQI results up to programme level.
		ProgrammeSummary(ctx context.Context, programme string) (ProgrammeCQISummary, error)
		// RunCQIDetection runs one CQI detection pass over all assessment rows.
		// Only one pass runs at a time; per-student failures never abort the pass.
		RunCQIDetection(ctx context.Context) (core.RunSummary, error)
	}

	service struct {
		repo    Repository
		stuSvc  student.Service
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config

		runMu sync.Mutex // serializes detection passes

		nowFunc func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, stuSvc student.Service, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:    repo,
		stuSvc:  stuSvc,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
		nowFunc: time.Now,
	}
}

func (svc *service) QueryByMatric(ctx context.Context, matric string) ([]Record, error) {
	return svc.repo.QueryAssessmentsByMatric(ctx, core.CleanString(matric, true /* lower */))
}

func (svc *service) Create(ctx context.Context, nr NewRecord) (Record, error) {
	rec := Record{
		Matric:     nr.Matric,
		Type:       Type(nr.Type),
		Scoring:    ScoringType(nr.Scoring),
		RecordedAt: svc.nowFunc().UTC(),
	}
	for i, score := range nr.Scores {
		if i >= NumPLOs {
			break
		}
		rec.Scores[i] = score
	}
	return svc.repo.CreateAssessment(ctx, rec)
}

func (svc *service) CQIForStudent(ctx context.Context, matric string) (StudentCQI, error) {
	records, err := svc.QueryByMatric(ctx, matric)
	if err != nil {
		return StudentCQI{}, err
	}
	results := EvaluatePLOs(records, svc.conf.CQI.AchievedPct)
	return StudentCQI{
		Matric:  core.CleanString(matric, true),
		Results: results,
		Issues:  Issues(results),
	}, nil
}

func (svc *service) ProgrammeSummary(ctx context.Context, programme string) (ProgrammeCQISummary, error) {
	students, err := svc.stuSvc.QueryByProgramme(ctx, programme)
	if err != nil {
		return ProgrammeCQISummary{}, errors.Wrap(err, "fetching programme students")
	}
	graduates := make([]student.Record, 0, len(students))
	for _, rec := range students {
		if rec.IsGraduated() {
			graduates = append(graduates, rec)
		}
	}

	records := make(map[string][]Record, len(graduates))
	for _, grad := range graduates {
		recs, err := svc.repo.QueryAssessmentsByMatric(ctx, grad.Matric)
		if err != nil {
			return ProgrammeCQISummary{}, errors.Wrapf(err, "fetching assessments for %s", grad.Matric)
		}
		records[grad.Matric] = recs
	}
	return AggregateProgramme(programme, graduates, records, svc.conf), nil
}

func (svc *service) RunCQIDetection(ctx context.Context) (core.RunSummary, error) {
	svc.runMu.Lock()
	defer svc.runMu.Unlock()

	var sum core.RunSummary

	all, err := svc.repo.QueryAllAssessments(ctx)
	if err != nil {
		return sum, errors.Wrap(err, "fetching assessment rows")
	}
	byMatric := make(map[string][]Record)
	var matrics []string
	for _, rec := range all {
		if _, ok := byMatric[rec.Matric]; !ok {
			matrics = append(matrics, rec.Matric)
		}
		byMatric[rec.Matric] = append(byMatric[rec.Matric], rec)
	}

	now := svc.nowFunc().UTC()
	for _, matric := range matrics {
		sum.Processed++
		if err := svc.detectForStudent(ctx, matric, byMatric[matric], now, &sum); err != nil {
			sum.Failed++
			svc.logger.Error(fmt.Sprintf("cqi detection for %s: %v", matric, err), err)
		}
	}

	svc.logger.Info("cqi detection pass done: " + sum.String())
	return sum, nil
}

// detectForStudent evaluates one student's records per assessment type, in ascending
// priority order, and alerts the supervisor at most once per (student, type). The
// flag is written for exactly the key used to check the gate. A send that cannot go
// out (no valid supervisor address) is flagged FlagFailed so a later pass can retry
// it and distinguish "already succeeded" from "tried and failed".
func (svc *service) detectForStudent(ctx context.Context, matric string, records []Record, now time.Time, sum *core.RunSummary) error {
	rec, err := svc.stuSvc.GetByMatric(ctx, matric)
	if err != nil {
		return errors.Wrap(err, "fetching tracking row")
	}

	alerted := false
	for _, typ := range Types {
		var typed []Record
		for _, r := range records {
			if r.Type == typ {
				typed = append(typed, r)
			}
		}
		if len(typed) == 0 {
			continue
		}

		issues := Issues(EvaluatePLOs(typed, svc.conf.CQI.AchievedPct))
		if len(issues) == 0 {
			continue
		}

		alert, err := svc.repo.GetCQIAlert(ctx, matric, typ)
		if err != nil {
			return errors.Wrapf(err, "fetching cqi alert flag for %s", typ)
		}
		if alert.Status == FlagSent {
			continue // already handled
		}

		sup, supErr := mail.ParseAddress(rec.SupervisorEmail)
		if supErr != nil {
			// nothing to send to; record the failed attempt for a later retry
			if _, err := svc.repo.MarkCQIAlert(ctx, matric, typ, FlagFailed, now); err != nil {
				return errors.Wrapf(err, "marking cqi alert failed for %s", typ)
			}
			svc.logger.Warn(fmt.Sprintf("no valid supervisor email for %s; cqi alert for %s flagged %s", matric, typ, FlagFailed))
			sum.Failed++
			continue
		}

		wrote, err := svc.repo.MarkCQIAlert(ctx, matric, typ, FlagSent, now)
		if err != nil {
			return errors.Wrapf(err, "marking cqi alert sent for %s", typ)
		}
		if !wrote { // a concurrent pass got there first
			continue
		}

		svc.sendCQIAlert(rec, *sup, typ, issues)
		alerted = true
	}

	if alerted {
		sum.Notified++
	} else {
		sum.Skipped++
	}
	return nil
}

type cqiMailData struct {
	Name           string
	Matric         string
	AssessmentType Type
	Threshold      float64
	Issues         []PLOResult
}

func (svc *service) sendCQIAlert(rec student.Record, sup mail.Address, typ Type, issues []PLOResult) {
	var cc []mail.Address
	if stu, err := mail.ParseAddress(rec.Email); err == nil {
		stu.Name = rec.Name
		cc = append(cc, *stu)
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{sup},
		Cc:           cc,
		Subject:      fmt.Sprintf("CQI required: %s (%s)", rec.Name, typ),
		TemplateName: "cqi-alert",
		TemplateData: cqiMailData{
			Name:           rec.Name,
			Matric:         rec.Matric,
			AssessmentType: typ,
			Threshold:      svc.conf.CQI.AchievedPct,
			Issues:         issues,
		},
	})
}
