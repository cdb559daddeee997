// @title           Quote Signal API
// @version         1.0
// @description     Read API over classified quotes and their stored history
// @BasePath  /

package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	appmarketdata "quotesignal/internal/application/service/marketdata"
	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	signalsBasePath = "/api/v1/signals"
	quotesBasePath  = "/api/v1/quotes"

	defaultRecentLimit = 10
)

type Handler struct {
	router     *gin.Engine
	marketdata *appmarketdata.Service
	cache      *redis.Client
	cacheTTL   time.Duration
	live       *Hub
}

// NewHandler wires the read API. When cache is non-nil, stored quote lookups
// are memoised in Redis for cacheTTL. A nil live hub leaves the websocket
// feed unregistered.
func NewHandler(md *appmarketdata.Service, cache *redis.Client, cacheTTL time.Duration, live *Hub) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:     router,
		marketdata: md,
		cache:      cache,
		cacheTTL:   cacheTTL,
		live:       live,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	h.router.GET("/healthz", h.healthz)

	signals := h.router.Group(signalsBasePath)
	{
		signals.GET("/latest", h.getLatestSignal)
		signals.GET("/recent", h.getRecentSignals)
		if h.live != nil {
			signals.GET("/stream", h.live.serveWS)
		}
	}

	quotes := h.router.Group(quotesBasePath)
	if h.cache != nil && h.cacheTTL > 0 {
		quotes.Use(h.cacheMiddleware())
	}
	{
		quotes.GET("/latest", h.getLatestQuote)
		quotes.GET("/last", h.getLastQuotes)
	}
}

// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Latest signal
// @Description  Most recent classified record for a symbol from the signal cache
// @Tags         signals
// @Produce      json
// @Param        symbol  query     string  true  "Instrument symbol"
// @Success      200     {object}  recordResponse
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /api/v1/signals/latest [get]
func (h *Handler) getLatestSignal(c *gin.Context) {
	record, err := h.marketdata.LatestSignal(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newRecordResponse(*record))
}

// @Summary      Recent signals
// @Description  Most recent classified records across all symbols, newest first
// @Tags         signals
// @Produce      json
// @Param        limit  query     int  false  "Number of records"  default(10)
// @Success      200    {array}   recordResponse
// @Failure      400    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /api/v1/signals/recent [get]
func (h *Handler) getRecentSignals(c *gin.Context) {
	limit, err := parseLimit(c, defaultRecentLimit)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	records, err := h.marketdata.RecentSignals(c.Request.Context(), limit)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newRecordResponses(records))
}

// @Summary      Latest stored quote
// @Tags         quotes
// @Produce      json
// @Param        symbol  query     string  true  "Instrument symbol"
// @Success      200     {object}  recordResponse
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /api/v1/quotes/latest [get]
func (h *Handler) getLatestQuote(c *gin.Context) {
	record, err := h.marketdata.LatestQuote(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newRecordResponse(*record))
}

// @Summary      Last stored quotes
// @Tags         quotes
// @Produce      json
// @Param        symbol  query     string  true  "Instrument symbol"
// @Param        limit   query     int     true  "Number of records"
// @Success      200     {array}   recordResponse
// @Failure      400     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /api/v1/quotes/last [get]
func (h *Handler) getLastQuotes(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("limit query param required"))
		return
	}
	records, err := h.marketdata.LastQuotes(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newRecordResponses(records))
}

type recordResponse struct {
	ID                  *uuid.UUID `json:"id,omitempty"`
	Symbol              string     `json:"symbol"`
	BidPrice            float64    `json:"bid_price"`
	AskPrice            float64    `json:"ask_price"`
	BidSize             float64    `json:"bid_size"`
	AskSize             float64    `json:"ask_size"`
	TotBuyQty           float64    `json:"tot_buy_qty"`
	TotSellQty          float64    `json:"tot_sell_qty"`
	Spread              float64    `json:"spread"`
	Imbalance           float64    `json:"imbalance"`
	OrderBookPrediction string     `json:"order_book_prediction"`
	OrderFlowPrediction string     `json:"order_flow_prediction"`
	Signal              string     `json:"signal"`
	ProcessingTimeMs    float64    `json:"processing_time_ms"`
	ReceivedAt          *time.Time `json:"received_at,omitempty"`
}

func newRecordResponse(r quote.Record) recordResponse {
	resp := recordResponse{
		Symbol:              r.Symbol,
		BidPrice:            r.BidPrice,
		AskPrice:            r.AskPrice,
		BidSize:             r.BidSize,
		AskSize:             r.AskSize,
		TotBuyQty:           r.TotBuyQty,
		TotSellQty:          r.TotSellQty,
		Spread:              r.Spread,
		Imbalance:           r.Imbalance,
		OrderBookPrediction: r.OrderBookPrediction,
		OrderFlowPrediction: r.OrderFlowPrediction,
		Signal:              r.Signal,
		ProcessingTimeMs:    r.ProcessingTimeMs,
	}
	if r.ID != uuid.Nil {
		id := r.ID
		resp.ID = &id
	}
	if !r.ReceivedAt.IsZero() {
		at := r.ReceivedAt
		resp.ReceivedAt = &at
	}
	return resp
}

func newRecordResponses(records []quote.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, newRecordResponse(r))
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, appmarketdata.ErrMissingSymbol), errors.Is(err, appmarketdata.ErrInvalidLimit):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, appmarketdata.ErrSourceDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			_ = h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err()
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("cache:%s:%s?%s", c.Request.Method, c.FullPath(), c.Request.URL.RawQuery)
}

func parseIntQuery(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, fmt.Errorf("%s query param required", key)
	}
	return strconv.Atoi(value)
}

func parseLimit(c *gin.Context, fallback int) (int, error) {
	if c.Query("limit") == "" {
		return fallback, nil
	}
	limit, err := parseIntQuery(c, "limit")
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	return limit, nil
}
