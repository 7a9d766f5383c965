package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/geocode"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/geolocation"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/ledger"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/locator"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/session"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/tip"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	defaultWSClientBufferSize = 64
	healthTimeout             = 3 * time.Second
)

// CenterProvider picks the initial map center for a client
type CenterProvider interface {
	CenterFor(clientIP string) geolocation.Center
}

// Dependencies are the collaborators a Server is built from
type Dependencies struct {
	Ledger             ledger.LedgerClient
	Cities             geocode.CityLookup
	Regions            geocode.RegionLookup
	Centers            CenterProvider
	MediaGateway       string
	ListenAddr         string
	ListenPort         int
	CORSAllowedOrigins []string
	WSClientBufferSize int
}

// Server manages HTTP and WebSocket connections
type Server struct {
	router             *gin.Engine
	logger             *logrus.Logger
	deps               Dependencies
	tips               *session.Registry[*tipSession]
	locations          *session.Registry[*locationSession]
	httpServer         *http.Server
	wsUpgrader         websocket.Upgrader
	wsClients          map[*WSClient]bool
	wsMu               sync.RWMutex
	wsClientBufferSize int
	broadcast          chan topicMessage
	stopBroadcast      chan struct{}
	stopOnce           sync.Once
	stopped            bool
}

type tipSession struct {
	id        string
	presenter *tip.Presenter
	server    *Server
}

func (s *tipSession) Close() error {
	err := s.presenter.Close()
	s.server.closeTopic(s.id)
	return err
}

type locationSession struct {
	resolver *locator.Resolver
	state    *locator.State
}

func (s *locationSession) Close() error {
	return s.resolver.Close()
}

// NewServer creates a new HTTP server
func NewServer(deps Dependencies, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	if deps.Centers == nil {
		deps.Centers = staticCenter{}
	}
	bufferSize := deps.WSClientBufferSize
	if bufferSize <= 0 {
		bufferSize = defaultWSClientBufferSize
	}
	corsAllowedOrigins := deps.CORSAllowedOrigins

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		router:             router,
		logger:             logger,
		deps:               deps,
		tips:               session.NewRegistry[*tipSession]("tip", logger),
		locations:          session.NewRegistry[*locationSession]("location", logger),
		wsClients:          make(map[*WSClient]bool),
		wsClientBufferSize: bufferSize,
		broadcast:          make(chan topicMessage, 256),
		stopBroadcast:      make(chan struct{}),
		wsUpgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range corsAllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}

	router.SetHTMLTemplate(cardTemplate)

	// Register routes
	srv.registerRoutes()

	// Start broadcast loop
	go srv.broadcastLoop()

	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// registerRoutes sets up all HTTP endpoints
func (s *Server) registerRoutes() {
	// CORS and metrics middleware (must be registered before routes)
	s.router.Use(s.corsMiddleware, metricsMiddleware)

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tips := s.router.Group("/tips/sessions")
	tips.POST("", s.handleOpenTip)
	tips.GET("/:id", s.handleGetTip)
	tips.GET("/:id/card", s.handleTipCard)
	tips.PUT("/:id/draft", s.handleSetDraft)
	tips.POST("/:id/feedback", s.handleSubmitFeedback)
	tips.GET("/:id/events", s.handleTipEvents)
	tips.DELETE("/:id", s.handleCloseTip)

	s.router.GET("/locations/default", s.handleDefaultCenter)
	locations := s.router.Group("/locations/sessions")
	locations.POST("", s.handleOpenLocation)
	locations.GET("/:id", s.handleGetLocation)
	locations.POST("/:id/location", s.handleLocationChange)
	locations.POST("/:id/zoom", s.handleZoomChange)
	locations.DELETE("/:id", s.handleCloseLocation)
}

func (s *Server) corsMiddleware(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	allowed := false
	for _, allowedOrigin := range s.deps.CORSAllowedOrigins {
		if origin == allowedOrigin {
			allowed = true
			break
		}
	}
	if allowed {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	}
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

func metricsMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unmatched"
	}
	metrics.HTTPRequestTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
}

// handleHealth returns service health status
func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	ledgerReachable := false
	if s.deps.Ledger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := s.deps.Ledger.Ping(ctx)
		cancel()
		if err == nil {
			ledgerReachable = true
		} else {
			status = "degraded"
			s.logger.WithError(err).Debug("Ledger ping failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"ledger_reachable":  ledgerReachable,
		"tip_sessions":      s.tips.Len(),
		"location_sessions": s.locations.Len(),
		"websocket_clients": s.websocketClientCount(),
	})
}

// handleOpenTip mounts a presenter for the tip record in the request body
func (s *Server) handleOpenTip(c *gin.Context) {
	var record models.TipRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tip record: " + err.Error()})
		return
	}
	if record.CrimeID.Hex == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tip record is missing crimeId"})
		return
	}
	if s.deps.Ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger is not configured"})
		return
	}

	id, sess := s.tips.Open(func(id string) *tipSession {
		return &tipSession{
			id:     id,
			server: s,
			presenter: tip.NewPresenter(record, s.deps.Ledger,
				tip.WithLogger(s.logger),
				tip.WithMediaGateway(s.deps.MediaGateway),
				tip.WithFeedbackListener(func(event models.FeedbackEvent) {
					s.onFeedback(id, event)
				}),
			),
		}
	})

	s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"crime_id":   record.CrimeID.Hex,
	}).Info("Tip session opened")

	c.JSON(http.StatusCreated, gin.H{"id": id, "view": sess.presenter.View()})
}

func (s *Server) lookupTip(c *gin.Context) (*tipSession, bool) {
	sess, err := s.tips.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetTip(c *gin.Context) {
	sess, ok := s.lookupTip(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.presenter.View())
}

func (s *Server) handleTipCard(c *gin.Context) {
	sess, ok := s.lookupTip(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "card", sess.presenter.View())
}

type draftRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSetDraft(c *gin.Context) {
	sess, ok := s.lookupTip(c)
	if !ok {
		return
	}
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft: " + err.Error()})
		return
	}
	sess.presenter.SetDraft(req.Text)
	c.JSON(http.StatusOK, sess.presenter.View())
}

type feedbackRequest struct {
	Text *string `json:"text"`
}

// handleSubmitFeedback submits the given text, or the stored draft when the
// body has no text, and waits for the ledger to confirm.
func (s *Server) handleSubmitFeedback(c *gin.Context) {
	sess, ok := s.lookupTip(c)
	if !ok {
		return
	}
	var req feedbackRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback: " + err.Error()})
			return
		}
	}

	var err error
	if req.Text != nil {
		err = sess.presenter.SubmitFeedback(c.Request.Context(), *req.Text)
	} else {
		err = sess.presenter.SubmitDraft(c.Request.Context())
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"view": sess.presenter.View()})
	case errors.Is(err, tip.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  tip.FailureNotice,
			"detail": err.Error(),
			"view":   sess.presenter.View(),
		})
	}
}

func (s *Server) handleCloseTip(c *gin.Context) {
	id := c.Param("id")
	if err := s.tips.Close(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.WithField("session_id", id).Info("Tip session closed")
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDefaultCenter(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Centers.CenterFor(c.ClientIP()))
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (r coordinateRequest) coordinate() models.Coordinate {
	return models.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type openLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// handleOpenLocation mounts a location resolver. Without a body coordinate
// the resolver starts at the client's default center.
func (s *Server) handleOpenLocation(c *gin.Context) {
	var req openLocationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location: " + err.Error()})
			return
		}
	}

	center := s.deps.Centers.CenterFor(c.ClientIP())
	initial := center.Coordinate
	zoom := center.Zoom
	if req.Latitude != nil && req.Longitude != nil {
		initial = models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		zoom = locator.DefaultZoom
	}
	if !initial.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
		return
	}

	id, sess := s.locations.Open(func(id string) *locationSession {
		state := locator.NewState(initial)
		return &locationSession{
			state: state,
			resolver: locator.New(initial, s.deps.Cities, s.deps.Regions, state.Apply,
				locator.WithLogger(s.logger),
				locator.WithZoom(zoom),
			),
		}
	})

	c.JSON(http.StatusCreated, gin.H{"id": id, "location": locationView(sess)})
}

func (s *Server) lookupLocation(c *gin.Context) (*locationSession, bool) {
	sess, err := s.locations.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

func locationView(sess *locationSession) gin.H {
	return gin.H{
		"selected": sess.resolver.Selected(),
		"zoom":     sess.resolver.Zoom(),
		"reported": sess.state.Snapshot(),
	}
}

func (s *Server) handleGetLocation(c *gin.Context) {
	sess, ok := s.lookupLocation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, locationView(sess))
}

// handleLocationChange applies a map pick. The coordinate is reported
// immediately; city and region arrive later and show up on GET.
func (s *Server) handleLocationChange(c *gin.Context) {
	sess, ok := s.lookupLocation(c)
	if !ok {
		return
	}
	var req coordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location: " + err.Error()})
		return
	}
	coord := req.coordinate()
	if !coord.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
		return
	}

	sess.resolver.OnLocationChange(coord.Latitude, coord.Longitude)
	c.JSON(http.StatusAccepted, locationView(sess))
}

type zoomRequest struct {
	Zoom *int `json:"zoom" binding:"required"`
}

func (s *Server) handleZoomChange(c *gin.Context) {
	sess, ok := s.lookupLocation(c)
	if !ok {
		return
	}
	var req zoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zoom: " + err.Error()})
		return
	}
	sess.resolver.OnZoomChange(*req.Zoom)
	c.JSON(http.StatusOK, locationView(sess))
}

func (s *Server) handleCloseLocation(c *gin.Context) {
	if err := s.locations.Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// StartSweeper closes sessions idle for longer than ttl until ctx is done.
func (s *Server) StartSweeper(ctx context.Context, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tips := s.tips.Sweep(ttl)
				locations := s.locations.Sweep(ttl)
				if tips+locations > 0 {
					s.logger.WithFields(logrus.Fields{
						"tip_sessions":      tips,
						"location_sessions": locations,
					}).Info("Closed idle sessions")
				}
			}
		}
	}()
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.deps.ListenAddr, s.deps.ListenPort)
	s.wsMu.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	httpServer := s.httpServer
	s.wsMu.Unlock()

	s.logger.WithField("address", addr).Info("Starting HTTP server")
	return httpServer.ListenAndServe()
}

// Stop gracefully stops the HTTP server, unmounts all sessions and stops the
// broadcast loop. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.wsMu.Lock()
		s.stopped = true
		httpServer := s.httpServer
		clients := make([]*WSClient, 0, len(s.wsClients))
		for client := range s.wsClients {
			clients = append(clients, client)
		}
		s.wsMu.Unlock()

		if httpServer != nil {
			err = httpServer.Shutdown(ctx)
		}
		close(s.stopBroadcast)
		for _, client := range clients {
			s.closeClient(client)
		}
		if s.tips != nil {
			s.tips.CloseAll()
		}
		if s.locations != nil {
			s.locations.CloseAll()
		}
	})
	return err
}

type staticCenter struct{}

func (staticCenter) CenterFor(string) geolocation.Center {
	return geolocation.DefaultCenter()
}
