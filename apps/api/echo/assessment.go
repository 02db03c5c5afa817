package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
)

type assessmentApi struct {
	svc assessment.Service
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assessment.Service) {
	api := assessmentApi{svc: svc}

	ag := g.Group("/assessments", jwt)
	ag.POST("", api.create, adminMiddleware())
	ag.POST("/run-cqi", api.runCQIDetection, adminMiddleware())
	ag.GET("/programme-summary", api.programmeSummary, staffMiddleware())

	// detail endpoints
	dg := ag.Group("/:matric", selfOrStaffMiddleware())
	dg.GET("", api.query)
	dg.GET("/cqi", api.cqi)
}

// Handlers

func (api *assessmentApi) create(ctx echo.Context) error {
	var data assessment.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	records, err := api.svc.QueryByMatric(ctx.Request().Context(), ctx.Param("matric"))
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if records == nil {
		records = []assessment.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *assessmentApi) cqi(ctx echo.Context) error {
	cqi, err := api.svc.CQIForStudent(ctx.Request().Context(), ctx.Param("matric"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "evaluating student cqi")
	}
	return ctx.JSON(http.StatusOK, cqi)
}

func (api *assessmentApi) programmeSummary(ctx echo.Context) error {
	programme := core.CleanString(ctx.QueryParam("programme"))
	if programme == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "programme", Error: "programme is required"})
	}

	summary, err := api.svc.ProgrammeSummary(ctx.Request().Context(), programme)
	if err != nil {
		return errors.Wrap(err, "summarizing programme cqi")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *assessmentApi) runCQIDetection(ctx echo.Context) error {
	sum, err := api.svc.RunCQIDetection(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "running cqi detection")
	}
	return ctx.JSON(http.StatusOK, sum)
}
