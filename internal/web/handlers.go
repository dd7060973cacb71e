package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FranksOps/prospect/internal/config"
	"github.com/FranksOps/prospect/internal/pipeline"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/storage/csvbackend"
	"github.com/FranksOps/prospect/internal/storage/jsonbackend"
	"github.com/FranksOps/prospect/internal/storage/xlsxbackend"
)

// indexData feeds the search page template.
type indexData struct {
	Status     config.Status
	Terms      []string
	Form       pipeline.Request
	CustomTerm string
	Error      string
	Searched   bool
	Companies  []*storage.Company
	NextOffset int
	HasMore    bool
}

// companyData feeds the lookup page template.
type companyData struct {
	Status  config.Status
	Error   string
	Name    string
	Company *storage.Company
}

func (s *Server) handleHealth(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", indexData{
		Status: s.status,
		Terms:  pipeline.DefaultTerms(),
		Form: pipeline.Request{
			Term:       pipeline.DefaultTerms()[0],
			Country:    pipeline.DefaultCountry,
			MaxResults: pipeline.DefaultMaxResults,
			Enrich:     true,
		},
	})
}

// handleSearchForm runs one search batch from the HTML form. Offset zero
// starts a fresh session; a positive offset is a Load More and appends.
func (s *Server) handleSearchForm(c *gin.Context) {
	req, customTerm := searchFormRequest(c)

	data := indexData{
		Status:     s.status,
		Terms:      pipeline.DefaultTerms(),
		Form:       req,
		CustomTerm: customTerm,
		Searched:   true,
	}

	batch, err := s.svc.Generate(c.Request.Context(), req)
	if err != nil {
		data.Error = userError(err)
		data.Companies = s.session.Companies()
		c.HTML(http.StatusOK, "index", data)
		return
	}

	if req.Offset == 0 {
		s.session.Reset()
	}
	s.session.Add(batch.Companies...)

	data.Companies = s.session.Companies()
	data.NextOffset = batch.NextOffset
	data.HasMore = len(batch.Companies) > 0 && batch.NextOffset > req.Offset
	c.HTML(http.StatusOK, "index", data)
}

// searchFormRequest reads the search form. A custom term overrides the
// dropdown selection; malformed numbers fall back to the pipeline defaults.
func searchFormRequest(c *gin.Context) (pipeline.Request, string) {
	req := pipeline.Request{
		Term:         c.PostForm("term"),
		Requirements: c.PostForm("requirements"),
		Country:      c.PostForm("country"),
		Enrich:       c.PostForm("enrich") != "",
	}

	customTerm := strings.TrimSpace(c.PostForm("custom_term"))
	if customTerm != "" {
		req.Term = customTerm
	}
	if n, err := strconv.Atoi(c.PostForm("max_results")); err == nil {
		req.MaxResults = n
	}
	if n, err := strconv.Atoi(c.PostForm("offset")); err == nil {
		req.Offset = n
	}

	return req, customTerm
}

func (s *Server) handleCompanyPage(c *gin.Context) {
	c.HTML(http.StatusOK, "company", companyData{Status: s.status})
}

func (s *Server) handleCompanyForm(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	data := companyData{Status: s.status, Name: name}

	company, err := s.svc.Lookup(c.Request.Context(), name)
	if err != nil {
		data.Error = userError(err)
		c.HTML(http.StatusOK, "company", data)
		return
	}

	s.session.Add(company)
	data.Company = company
	c.HTML(http.StatusOK, "company", data)
}

func (s *Server) handleAPISearch(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	batch, err := s.svc.Generate(c.Request.Context(), req)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	if req.Offset == 0 {
		s.session.Reset()
	}
	s.session.Add(batch.Companies...)

	c.JSON(http.StatusOK, batch)
}

func (s *Server) handleAPICompany(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	company, err := s.svc.Lookup(c.Request.Context(), body.Name)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	s.session.Add(company)
	c.JSON(http.StatusOK, company)
}

func (s *Server) handleAPIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status)
}

// handleExport streams the session's records as a download. An empty session
// exports headers only, which keeps the links on the page safe to click at
// any time.
func (s *Server) handleExport(c *gin.Context) {
	companies := s.session.Companies()
	now := time.Now()

	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		name := fmt.Sprintf("leads_%s.csv", now.Format("2006-01-02"))
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if err := csvbackend.WriteRecords(c.Writer, companies); err != nil {
			s.logger.Error("csv export failed", "err", err)
		}
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="`+xlsxbackend.DefaultFilename(now)+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := xlsxbackend.WriteWorkbook(c.Writer, companies); err != nil {
			s.logger.Error("xlsx export failed", "err", err)
		}
	case "json":
		name := fmt.Sprintf("leads_%s.json", now.Format("2006-01-02"))
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Header("Content-Type", "application/json; charset=utf-8")
		if err := jsonbackend.WriteRecords(c.Writer, companies); err != nil {
			s.logger.Error("json export failed", "err", err)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown export format: " + format})
	}
}

// errorStatus maps pipeline failures onto API status codes. Search runs
// against an upstream service, so unexpected failures read as a bad gateway
// rather than a server bug.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, serp.ErrNoAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, serp.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoResults):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// userError phrases pipeline failures for the HTML pages.
func userError(err error) string {
	switch {
	case errors.Is(err, serp.ErrNoAPIKey):
		return "Search is not configured. Set SERPER_API_KEY to enable it."
	case errors.Is(err, serp.ErrEmptyQuery):
		return "Enter a search term or company name first."
	case errors.Is(err, pipeline.ErrNoResults):
		return "No results found. Check the spelling or try a broader name."
	default:
		return "Search failed: " + err.Error()
	}
}
