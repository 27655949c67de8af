package api

import (
	"time"

	models "HeatCycle/internal/domain/models"
	domrepo "HeatCycle/internal/domain/repository"
	apimetrics "HeatCycle/internal/service/metrics"
	"HeatCycle/internal/service/ratelimit"
	"HeatCycle/internal/service/recordcache"
	"HeatCycle/internal/usecase"
	xhttp "HeatCycle/pkg/http"
	xlogger "HeatCycle/pkg/logger"
	"HeatCycle/pkg/util"

	"github.com/labstack/echo/v4"
)

// RecordsEchoHandler exposes the daily metrics records, the setpoint
// recommendation, and a manual analysis trigger over Echo.
type RecordsEchoHandler struct {
	logger   *xlogger.Logger
	store    domrepo.RecordStore
	analyzer *usecase.AnalyzerUseCase
	optimum  *usecase.OptimumUseCase
	cache    *recordcache.RecordCache
	rl       *ratelimit.Limiter
	loc      *time.Location
}

func NewRecordsEchoHandler(
	logger *xlogger.Logger,
	store domrepo.RecordStore,
	analyzer *usecase.AnalyzerUseCase,
	optimum *usecase.OptimumUseCase,
	cache *recordcache.RecordCache,
	loc *time.Location,
) *RecordsEchoHandler {
	apimetrics.Register()
	if loc == nil {
		loc = time.Local
	}
	return &RecordsEchoHandler{
		logger:   logger,
		store:    store,
		analyzer: analyzer,
		optimum:  optimum,
		cache:    cache,
		rl:       ratelimit.New(),
		loc:      loc,
	}
}

func (h *RecordsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/record/latest", h.LatestRecord)
	g.GET("/records", h.Records)
	g.GET("/recommendation", h.Recommendation)
	g.POST("/analysis/run", h.Run)
	e.GET("/healthz", h.Health)
}

func (h *RecordsEchoHandler) LatestRecord(c echo.Context) error {
	defer h.observe("record_latest", time.Now())

	if h.cache != nil {
		if rec, ok, err := h.cache.Latest(); err != nil {
			h.logger.Warn("record cache read error", xlogger.Error(err))
		} else if ok {
			c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
			return xhttp.SuccessResponse(c, rec)
		}
	}

	rec, err := h.store.Latest(c.Request().Context())
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("record_latest").Inc()
		h.logger.Error("record latest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if rec == nil {
		return xhttp.NotFoundResponse(c, "no records yet")
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *RecordsEchoHandler) Records(c echo.Context) error {
	defer h.observe("records", time.Now())

	req := &models.RecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	to := now
	if req.To != "" {
		parsed, ok := h.parseDay(req.To)
		if !ok {
			return xhttp.BadRequestResponse(c, "to: expected RFC3339 or YYYY-MM-DD")
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -req.Days)
	if req.From != "" {
		parsed, ok := h.parseDay(req.From)
		if !ok {
			return xhttp.BadRequestResponse(c, "from: expected RFC3339 or YYYY-MM-DD")
		}
		from = parsed
	}

	recs, err := h.store.Range(c.Request().Context(), from, to)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("records").Inc()
		h.logger.Error("records range error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *RecordsEchoHandler) Recommendation(c echo.Context) error {
	defer h.observe("recommendation", time.Now())

	req := &models.RecommendationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// Without an explicit outdoor temperature, serve the recommendation
	// computed by the last analysis run.
	if req.OutdoorTemp == nil {
		if h.cache != nil {
			if rec, ok, err := h.cache.Recommendation(); err != nil {
				h.logger.Warn("recommendation cache read error", xlogger.Error(err))
			} else if ok {
				return xhttp.SuccessResponse(c, rec)
			}
		}
		return xhttp.NotFoundResponse(c, "no recommendation available")
	}

	rec, err := h.optimum.RecommendOver(c.Request().Context(), time.Now(), req.OutdoorTemp, req.Days)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("recommendation").Inc()
		h.logger.Error("recommendation error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if rec == nil {
		return xhttp.NotFoundResponse(c, "not enough history for these conditions")
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *RecordsEchoHandler) Run(c echo.Context) error {
	defer h.observe("analysis_run", time.Now())

	if !h.rl.Allow(c.RealIP()+":run", 2, 1.0/30) {
		h.logger.Warn("analysis run rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		rec *models.DailyMetricsRecord
		err error
	)
	if req.Day == "" {
		rec, err = h.analyzer.Run(c.Request().Context(), time.Now())
	} else {
		day, ok := util.ParseDay(req.Day, h.loc)
		if !ok {
			return xhttp.BadRequestResponse(c, "day: expected YYYY-MM-DD")
		}
		rec, err = h.analyzer.RunDay(c.Request().Context(), day)
	}
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("analysis_run").Inc()
		h.logger.Error("analysis run error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *RecordsEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, 503, map[string]string{"status": "unhealthy"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *RecordsEchoHandler) parseDay(s string) (time.Time, bool) {
	if t, ok := xhttp.ParseTime(s); ok {
		return t, true
	}
	if t, ok := util.ParseDay(s, h.loc); ok {
		return t, true
	}
	return time.Time{}, false
}

func (h *RecordsEchoHandler) observe(endpoint string, start time.Time) {
	apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
