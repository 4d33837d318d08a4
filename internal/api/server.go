package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"whid-api/internal/domain"
	"whid-api/internal/infra/metrics"
	"whid-api/internal/usecase/channels"
	"whid-api/internal/usecase/epochs"
	"whid-api/internal/usecase/members"
	"whid-api/internal/usecase/messages"
	"whid-api/internal/usecase/reactions"
	"whid-api/internal/usecase/scores"
	"whid-api/internal/usecase/voice"
)

// Server exposes the bookkeeping API over chi.
type Server struct {
	members   *members.Service
	channels  *channels.Service
	messages  *messages.Service
	reactions *reactions.Service
	voice     *voice.Service
	scores    *scores.Service
	epochs    *epochs.Service
	tokens    []string
	log       zerolog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithAPITokens sets the bearer-token allow-list for mutating routes.
func WithAPITokens(tokens []string) Option {
	return func(s *Server) { s.tokens = tokens }
}

// NewServer creates the API server.
func NewServer(
	membersSvc *members.Service,
	channelsSvc *channels.Service,
	messagesSvc *messages.Service,
	reactionsSvc *reactions.Service,
	voiceSvc *voice.Service,
	scoresSvc *scores.Service,
	epochsSvc *epochs.Service,
	opts ...Option,
) *Server {
	srv := &Server{
		members:   membersSvc,
		channels:  channelsSvc,
		messages:  messagesSvc,
		reactions: reactionsSvc,
		voice:     voiceSvc,
		scores:    scoresSvc,
		epochs:    epochsSvc,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(observeRequests)

	r.Get("/message/{msgID}", s.handleGetMessage)
	r.Get("/messages", s.handleListMessages)
	r.Get("/member/{memberID}", s.handleGetMember)
	r.Get("/channel/{chanID}", s.handleGetChannel)
	r.Get("/score", s.handleGetScore)
	r.Get("/scores", s.handleListScores)
	r.Get("/epoch/all", s.handleListEpochs)
	r.Get("/epoch/{epoch}", s.handleGetEpoch)
	r.Get("/reaction", s.handleListReactions)
	r.Get("/voice_event", s.handleListVoiceEvents)

	r.Group(func(protected chi.Router) {
		protected.Use(BearerAuth(s.tokens))

		protected.Put("/message/{msgID}", s.handlePutMessage)
		protected.Patch("/message/{msgID}", s.handlePatchMessage)
		protected.Delete("/message/{msgID}", s.handleDeleteMessage)
		protected.Put("/pin/{msgID}", s.handlePinMessage)
		protected.Put("/unpin/{msgID}", s.handleUnpinMessage)

		protected.Put("/member/{memberID}", s.handlePutMember)
		protected.Patch("/member/{memberID}", s.handlePatchMember)

		protected.Put("/channel/{chanID}", s.handlePutChannel)
		protected.Patch("/channel/{chanID}", s.handlePatchChannel)
		protected.Delete("/channel/{chanID}", s.handleDeleteChannel)

		protected.Post("/reaction", s.handleAddReaction)
		protected.Delete("/reaction", s.handleDeleteReaction)

		protected.Post("/voice_event", s.handleAddVoiceEvent)

		protected.Post("/scores", s.handlePostScores)
	})

	return r
}

func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, http.StatusText(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"detail": msg})
}

// writeDomainError translates a usecase failure exactly once, at the
// boundary.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *domain.MissingReferencesError
	switch {
	case errors.As(err, &missing):
		members := missing.Members
		if members == nil {
			members = []string{}
		}
		chans := missing.Channels
		if chans == nil {
			chans = []string{}
		}
		writeJSON(w, http.StatusFailedDependency, map[string]any{
			"missing_members":  members,
			"missing_channels": chans,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, epochs.ErrBadToken),
		errors.Is(err, messages.ErrNoFilter),
		errors.Is(err, voice.ErrNoFilter):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("api: request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
