// Package fakeapi is an in-memory stand-in for the remote prediction service.
// It speaks the same JSON envelope over HTTP so the transport, the client and
// the CLI can be exercised end to end without network access.
package fakeapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/middleware"
	"github.com/osvaldoandrade/visiongo/internal/ratelimit"
	"github.com/osvaldoandrade/visiongo/internal/wire"
	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const (
	defaultPerPage       = 20
	defaultTrainingReads = 2
)

type Options struct {
	// APIKeys accepted in "Authorization: Key ..."; empty accepts anything.
	APIKeys []string
	Limiter ratelimit.Limiter
	Bucket  ratelimit.Bucket
	Logger  *slog.Logger
	Now     func() time.Time
	// TrainingReads is how many reads of a queued version pass before its
	// training finishes.
	TrainingReads int
}

type Server struct {
	engine *gin.Engine
	store  *store
	logger *slog.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TrainingReads <= 0 {
		opts.TrainingReads = defaultTrainingReads
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: gin.New(),
		store:  newStore(opts.Now, opts.TrainingReads),
		logger: opts.Logger,
	}
	s.engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware("visiongo-fakeapi"),
		middleware.LoggerMiddleware(opts.Logger),
	)
	s.setupMappings(opts)
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupMappings(opts Options) {
	v2 := s.engine.Group("/v2",
		middleware.APIKeyMiddleware(opts.APIKeys...),
		middleware.RateLimitMiddleware(opts.Limiter, "fakeapi", opts.Bucket),
	)

	v2.GET("/concepts", s.listConcepts)
	v2.POST("/concepts", s.addConcepts)
	v2.PATCH("/concepts", s.modifyConcepts)
	v2.POST("/concepts/searches", s.searchConcepts)
	v2.GET("/concepts/:id", s.getConcept)

	v2.GET("/models", s.listModels)
	v2.POST("/models", s.createModel)
	v2.DELETE("/models", s.deleteAllModels)
	v2.POST("/models/searches", s.searchModels)
	v2.DELETE("/models/:id", s.deleteModel)
	v2.GET("/models/:id/output_info", s.getModel)
	v2.POST("/models/:id/outputs", s.predict)
	v2.GET("/models/:id/versions", s.listModelVersions)
	v2.POST("/models/:id/versions", s.trainModel)
	v2.GET("/models/:id/versions/:vid", s.getModelVersion)
	v2.DELETE("/models/:id/versions/:vid", s.deleteModelVersion)
	v2.GET("/models/:id/versions/:vid/output_info", s.getModel)
	v2.POST("/models/:id/versions/:vid/outputs", s.predict)
	v2.POST("/models/:id/versions/:vid/metrics", s.evaluateModel)

	v2.GET("/inputs", s.listInputs)
	v2.POST("/inputs", s.addInputs)
	v2.DELETE("/inputs", s.deleteInputs)
	v2.GET("/inputs/status", s.inputsStatus)
	v2.GET("/inputs/:id", s.getInput)

	s.engine.NoRoute(func(c *gin.Context) {
		middleware.AbortWithStatus(c, http.StatusNotFound, domain.StatusNotFound, "Resource does not exist")
	})
}

var okStatus = domain.Status{Code: domain.StatusOK, Description: "Ok"}.Serialize()

// reply writes a successful envelope; fill adds the payload fields.
func reply(c *gin.Context, fill func(o *wire.Object)) {
	o := wire.NewObject().SetRaw("status", okStatus)
	if fill != nil {
		fill(o)
	}
	body, err := o.Bytes()
	if err != nil {
		middleware.AbortWithStatus(c, http.StatusInternalServerError, domain.StatusFailure, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func notFound(c *gin.Context, what string) {
	middleware.AbortWithStatus(c, http.StatusNotFound, domain.StatusNotFound, what+" does not exist")
}

func badRequest(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"status": gin.H{
			"code":        int(domain.StatusInvalidArgument),
			"description": "Invalid request",
			"details":     details,
		},
	})
}

// jsonBody reads the request body as JSON; it answers 400 and reports false
// when the body is not valid JSON.
func jsonBody(c *gin.Context) (gjson.Result, bool) {
	raw, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(raw) {
		badRequest(c, "request body is not valid JSON")
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(raw), true
}

func pageParams(c *gin.Context) (int, int) {
	pageNum, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return pageNum, perPage
}
