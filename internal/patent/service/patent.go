package service

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/biz"
	"github.com/sadskatr/patent-database/internal/patent/export"
	"github.com/sadskatr/patent-database/internal/patent/types"
	apperrors "github.com/sadskatr/patent-database/internal/pkg/errors"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/response"
)

// DefaultToolName is the page title when none is configured
const DefaultToolName = "Patent Search Tool"

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PatentService serves the search UI and its JSON API
type PatentService struct {
	uc       *biz.PatentUseCase
	exporter *export.CSVExporter
	logger   *logger.Logger
	toolName string
	now      func() time.Time
}

// Option customizes a PatentService
type Option func(*PatentService)

// WithToolName sets the title shown on the index page
func WithToolName(name string) Option {
	return func(s *PatentService) {
		if name != "" {
			s.toolName = name
		}
	}
}

// WithClock sets the clock used to name export files
func WithClock(now func() time.Time) Option {
	return func(s *PatentService) { s.now = now }
}

// NewPatentService creates the patent search service
func NewPatentService(uc *biz.PatentUseCase, log *logger.Logger, opts ...Option) *PatentService {
	if log == nil {
		log = logger.NewNop()
	}
	s := &PatentService{
		uc:       uc,
		exporter: export.NewCSVExporter(),
		logger:   log.Named("patent_service"),
		toolName: DefaultToolName,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexData is rendered into the index page
type IndexData struct {
	ToolName          string
	SearchTypes       []types.SearchType
	ValidFields       map[string][]types.FieldInfo
	FieldDisplayNames map[string]string
	BooleanOperators  []string
	MaxResults        int
}

// ExportRequest is the body of the CSV export endpoint. Results wins when
// both are present.
type ExportRequest struct {
	Results      []types.PatentRecord `json:"results"`
	SearchParams *types.SearchRequest `json:"search_params"`
}

// SimilarRequest is the body of the find-similar endpoint
type SimilarRequest struct {
	Title        string           `json:"title"`
	PatentNumber types.FlexString `json:"patent_number"`
}

// PreviewResponse wraps the preview of an outgoing request
type PreviewResponse struct {
	Success     bool             `json:"success"`
	PreviewData *biz.PreviewData `json:"preview_data"`
}

// ValidFieldsResponse lists the fields of one search type
type ValidFieldsResponse struct {
	Success bool              `json:"success"`
	Fields  []types.FieldInfo `json:"fields"`
}

// Index renders the search page
// @Summary Search page
// @Tags patent
// @Produce html
// @Router /patent_database/ [get]
func (s *PatentService) Index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{
		Template: indexTemplate,
		Name:     "index.html",
		Data: IndexData{
			ToolName:          s.toolName,
			SearchTypes:       types.SearchTypes,
			ValidFields:       types.FieldGroups(),
			FieldDisplayNames: types.FieldDisplayNames(),
			BooleanOperators:  types.BooleanOperators,
			MaxResults:        types.MaxResultsPerPage,
		},
	})
}

// Search runs a patent search. Upstream failures are reported in the body
// with status 200.
// @Summary Search patent applications
// @Tags patent
// @Accept json
// @Produce json
// @Param request body types.SearchRequest true "Search parameters"
// @Success 200 {object} types.SearchResult
// @Router /patent_database/api/search [post]
func (s *PatentService) Search(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInvalidParams, err.Error()))
		return
	}

	log := s.requestLogger(c)
	log.Info("search request received", zap.String("search_type", string(req.SearchType)))

	result := s.uc.Search(c.Request.Context(), &req)
	if result.Success {
		log.Info("search returned",
			zap.Int("returned", result.ResultCount()),
			zap.Int("total", result.Data.Metadata.Total),
		)
		if result.Note != "" {
			log.Info("alternative search used", zap.String("note", result.Note))
		}
	} else {
		log.Error("search failed", zap.String("error", result.Error))
	}

	response.OK(c, result)
}

// ExportCSV downloads results, given directly or found by re-running a
// search, as a CSV attachment
// @Summary Export results as CSV
// @Tags patent
// @Accept json
// @Produce text/csv
// @Param request body ExportRequest true "Results or search parameters"
// @Router /patent_database/api/export-csv [post]
func (s *PatentService) ExportCSV(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInvalidParams, err.Error()))
		return
	}

	records, err := s.exportRecords(c, &req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	data, err := s.exporter.Format(records)
	if err != nil {
		s.logger.Error("failed to format csv", zap.Error(err))
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer))
		return
	}

	filename := export.Filename(s.now())
	s.requestLogger(c).Info("csv export",
		zap.Int("records", len(records)),
		zap.String("filename", filename),
	)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(data))
}

func (s *PatentService) exportRecords(c *gin.Context, req *ExportRequest) ([]types.PatentRecord, error) {
	if req.Results != nil {
		return req.Results, nil
	}
	if req.SearchParams == nil {
		return nil, apperrors.New(apperrors.ErrExportEmpty)
	}

	params := req.SearchParams.Clone()
	page := types.Pagination{Limit: types.MaxResultsPerPage}
	if params.Pagination != nil {
		page.Offset = params.Pagination.Offset
	}
	params.Pagination = &page

	result := s.uc.Search(c.Request.Context(), params)
	if !result.Success {
		return nil, apperrors.Newf(apperrors.ErrExportFailed, "%s", result.Error)
	}
	return result.Data.Results, nil
}

// ValidFields lists the fields that apply to a search type
// @Summary Valid fields for a search type
// @Tags patent
// @Produce json
// @Param search_type path string true "Search type"
// @Success 200 {object} ValidFieldsResponse
// @Router /patent_database/api/valid-fields/{search_type} [get]
func (s *PatentService) ValidFields(c *gin.Context) {
	searchType := c.Param("search_type")
	fields, ok := types.ValidFields(searchType)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnknownSearchType, searchType)
		return
	}
	response.OK(c, ValidFieldsResponse{Success: true, Fields: fields})
}

// PreviewQuery shows the request a search would send, without sending it
// @Summary Preview the upstream request
// @Tags patent
// @Accept json
// @Produce json
// @Param request body types.SearchRequest true "Search parameters"
// @Success 200 {object} PreviewResponse
// @Router /patent_database/api/preview-query [post]
func (s *PatentService) PreviewQuery(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrBadRequest))
		return
	}
	if parsed := gjson.ParseBytes(body); !parsed.IsObject() || len(parsed.Map()) == 0 {
		s.logger.Warn("no data received in preview request")
		response.BadRequest(c, "No data received")
		return
	}

	var req types.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInvalidParams, err.Error()))
		return
	}

	preview := s.uc.Preview(&req)
	s.requestLogger(c).Info("query preview built", zap.String("q", preview.QueryPayload.Q))
	response.OK(c, PreviewResponse{Success: true, PreviewData: preview})
}

// TestConnection probes the upstream API
// @Summary Test the upstream connection
// @Tags patent
// @Produce json
// @Success 200 {object} biz.ConnectionStatus
// @Router /patent_database/api/test-connection [get]
func (s *PatentService) TestConnection(c *gin.Context) {
	response.OK(c, s.uc.TestConnection(c.Request.Context()))
}

// FindSimilar searches for patents with titles like the given one
// @Summary Find similar patents
// @Tags patent
// @Accept json
// @Produce json
// @Param request body SimilarRequest true "Title and optional application number to exclude"
// @Success 200 {object} types.SearchResult
// @Router /patent_database/api/find-similar [post]
func (s *PatentService) FindSimilar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInvalidParams, err.Error()))
		return
	}

	result, err := s.uc.FindSimilar(c.Request.Context(), req.Title, req.PatentNumber.String())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.OK(c, result)
}

// RegisterRoutes mounts the page and API under r
func (s *PatentService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", s.Index)

	api := r.Group("/api")
	{
		api.POST("/search", s.Search)
		api.POST("/export-csv", s.ExportCSV)
		api.GET("/valid-fields/:search_type", s.ValidFields)
		api.POST("/preview-query", s.PreviewQuery)
		api.GET("/test-connection", s.TestConnection)
		api.POST("/find-similar", s.FindSimilar)
	}
}

func (s *PatentService) requestLogger(c *gin.Context) *logger.Logger {
	return s.logger.With(zap.String("request_id", logger.GetRequestID(c.Request.Context())))
}
