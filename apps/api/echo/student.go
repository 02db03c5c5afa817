package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
)

type studentApi struct {
	svc student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.Service) {
	api := studentApi{svc: svc}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, staffMiddleware())
	sg.POST("/run-delays", api.runDelayDetection, adminMiddleware())

	// detail endpoints
	dg := sg.Group("/:matric", selfOrStaffMiddleware())
	dg.GET("", api.retrieve)
	dg.GET("/timeline", api.timeline)
	dg.PUT("/milestones/:key", api.recordMilestone, adminMiddleware())
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	var (
		records []student.Record
		err     error
	)
	if programme := ctx.QueryParam("programme"); programme != "" {
		records, err = api.svc.QueryByProgramme(ctx.Request().Context(), programme)
	} else {
		records, err = api.svc.QueryAll(ctx.Request().Context())
	}
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if records == nil {
		records = []student.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.GetByMatric(ctx.Request().Context(), ctx.Param("matric"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by matric")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *studentApi) timeline(ctx echo.Context) error {
	entries, err := api.svc.Timeline(ctx.Request().Context(), ctx.Param("matric"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "building timeline")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *studentApi) recordMilestone(ctx echo.Context) error {
	var data MilestoneRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MilestoneRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actual, err := core.ParseCellDate(data.Actual)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "actual", Error: "unrecognized date"})
	}

	key := student.MilestoneKey(ctx.Param("key"))
	if err := api.svc.RecordMilestone(ctx.Request().Context(), ctx.Param("matric"), key, actual); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "recording milestone")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) runDelayDetection(ctx echo.Context) error {
	sum, err := api.svc.RunDelayDetection(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "running delay detection")
	}
	return ctx.JSON(http.StatusOK, sum)
}

type MilestoneRequest struct {
	Actual string `json:"actual" validate:"required"`
}

func (mr *MilestoneRequest) Validate() error {
	mr.Actual = core.CleanString(mr.Actual)
	return core.Validate.Struct(mr)
}
