package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"github.com/riskibarqy/matchweek/internal/platform/resilience"
	"github.com/riskibarqy/matchweek/internal/usecase"
)

// UpstreamHealth exposes the provider circuit state on /healthz.
type UpstreamHealth interface {
	BreakerSnapshot() (resilience.Snapshot, bool)
}

type Handler struct {
	matchService *usecase.MatchService
	upstream     UpstreamHealth
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(matchService *usecase.MatchService, upstream UpstreamHealth, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService: matchService,
		upstream:     upstream,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	resp := healthDTO{Status: "ok"}
	if h.upstream != nil {
		if snapshot, ok := h.upstream.BreakerSnapshot(); ok {
			resp.Upstream = &upstreamHealthDTO{Circuit: snapshot}
		}
	}

	writeSuccess(ctx, w, http.StatusOK, resp)
}
