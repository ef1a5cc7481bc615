package ui

import (
	"bytes"
	"log"
	"net/http"
	"net/url"

	"hrattrition/adapters/excel"
	"hrattrition/domain/attrition"
	"hrattrition/internal/charts"
	"hrattrition/internal/errors"

	"github.com/gin-gonic/gin"
)

const (
	pageTitle     = "퇴직율 대시보드"
	downloadName  = "HR Data"
	xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) renderError(c *gin.Context, err error) {
	log.Printf("[Dashboard] %v", err)
	data := gin.H{
		"PageTitle": pageTitle,
		"Message":   errors.UserMessage(err),
		"Empty":     errors.GetCode(err) == errors.CodeEmptyDataset,
		"Source":    s.service.Path(),
	}
	s.renderTemplate(c, errors.HTTPStatus(err), "error.html", data)
}

func (s *Server) handleIndex(c *gin.Context) {
	dashboard, err := s.service.Build(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.renderTemplate(c, http.StatusOK, "index.html", gin.H{
		"PageTitle": pageTitle,
		"Dashboard": dashboard,
	})
}

func (s *Server) handleDownloadCSV(c *gin.Context) {
	ds, err := s.service.Dataset(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteCSV(&buf, ds); err != nil {
		s.renderError(c, errors.Wrap(err, "failed to write CSV"))
		return
	}
	attachment(c, downloadName+".csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleDownloadXLSX(c *gin.Context) {
	ds, err := s.service.Dataset(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteXLSX(&buf, ds); err != nil {
		s.renderError(c, errors.Wrap(err, "failed to write XLSX"))
		return
	}
	attachment(c, downloadName+".xlsx")
	c.Data(http.StatusOK, xlsxMediaType, buf.Bytes())
}

func (s *Server) handleChart(c *gin.Context) {
	format, err := charts.ParseFormat(c.DefaultQuery("format", string(charts.SVG)))
	if err != nil {
		c.String(errors.HTTPStatus(err), errors.UserMessage(err))
		return
	}

	img, err := s.service.Chart(c.Request.Context(), attrition.DimensionKey(c.Param("dimension")), format)
	if err != nil {
		c.String(errors.HTTPStatus(err), errors.UserMessage(err))
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, format.ContentType(), img)
}

func (s *Server) handleReload(c *gin.Context) {
	s.service.Reload()
	c.Redirect(http.StatusSeeOther, "/")
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"; filename*=UTF-8''`+url.PathEscape(filename))
}
