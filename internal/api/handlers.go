package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/service"
	"github.com/labstack/echo/v4"
)

type createPipelineRequest struct {
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func listPipelines(svc service.PipelineService) echo.HandlerFunc {
	return func(c echo.Context) error {
		pipelines, err := svc.List(c.Request().Context())
		if err != nil {
			return err
		}
		if pipelines == nil {
			pipelines = []*domain.Pipeline{}
		}
		return c.JSON(http.StatusOK, pipelines)
	}
}

func createPipeline(svc service.PipelineService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createPipelineRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		p, err := svc.Create(c.Request().Context(), req.Name, req.Stages)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, p)
	}
}

func getPipeline(svc service.PipelineService) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := svc.GetByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, p)
	}
}

func listDeals(svc service.DealService) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := domain.DealFilter{
			PipelineID: c.QueryParam("pipelineId"),
			StageID:    c.QueryParam("stageId"),
		}
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			status := domain.DealStatus(raw)
			if !domain.ValidDealStatuses[status] {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
			}
			f.Status = status
		}
		if raw := c.QueryParam("includeArchived"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid includeArchived")
			}
			f.IncludeArchived = v
		}

		deals, err := svc.List(c.Request().Context(), f)
		if err != nil {
			return err
		}
		if deals == nil {
			deals = []*domain.Deal{}
		}
		return c.JSON(http.StatusOK, deals)
	}
}

func createDeal(svc service.DealService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var d domain.Deal
		if err := c.Bind(&d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		if d.OwnerID == "" {
			d.OwnerID = UserID(c)
		}
		if err := svc.Create(c.Request().Context(), &d); err != nil {
			return err
		}
		stored, err := svc.GetByID(c.Request().Context(), d.ID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, stored)
	}
}

func getDeal(svc service.DealService) echo.HandlerFunc {
	return func(c echo.Context) error {
		d, err := svc.GetByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, d)
	}
}

// putDeal replaces the stored record; the path id wins over the body.
func putDeal(svc service.DealService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var d domain.Deal
		if err := c.Bind(&d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		d.ID = c.Param("id")
		stored, err := svc.Update(c.Request().Context(), &d)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, stored)
	}
}

func patchDeal(svc service.DealService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.DealPatch
		if err := c.Bind(&patch); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		stored, err := svc.Patch(c.Request().Context(), c.Param("id"), patch)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, stored)
	}
}
