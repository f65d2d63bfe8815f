package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchweek/internal/usecase"
)

type weekRequest struct {
	Offset int `validate:"gte=-520,lte=520"`
}

type gameweekRequest struct {
	Gameweek int    `validate:"gt=0"`
	Season   string `validate:"omitempty,len=4,numeric"`
}

func (h *Handler) GetWeekMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekMatches")
	defer span.End()

	offset := 0
	if raw := strings.TrimSpace(r.PathValue("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: offset must be an integer", usecase.ErrInvalidInput))
			return
		}
		offset = parsed
	}
	if err := h.validator.Struct(weekRequest{Offset: offset}); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: offset must be between -520 and 520", usecase.ErrInvalidInput))
		return
	}

	result, err := h.matchService.WeekView(ctx, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "week view failed", "offset", offset, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weekToDTO(result))
}

func (h *Handler) GetCurrentWeekMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentWeekMatches")
	defer span.End()

	result, err := h.matchService.CurrentWeek(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "current week failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if result.Failed() {
		writeSuccess(ctx, w, http.StatusOK, degradedMatchesDTO{
			Matches:     []matchDTO{},
			Message:     result.Message,
			RateLimited: result.RateLimited,
		})
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(result.Matches))
}

func (h *Handler) ListMatchesByGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesByGameweek")
	defer span.End()

	gameweek, err := strconv.Atoi(strings.TrimSpace(r.PathValue("gameweek")))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid gameweek number", usecase.ErrInvalidInput))
		return
	}
	req := gameweekRequest{
		Gameweek: gameweek,
		Season:   strings.TrimSpace(r.URL.Query().Get("season")),
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %s", usecase.ErrInvalidInput, describeValidation(err)))
		return
	}

	items, err := h.matchService.ListByGameweek(ctx, req.Gameweek, req.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches by gameweek failed", "gameweek", req.Gameweek, "season", req.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	items, err := h.matchService.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) RefreshMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshMatches")
	defer span.End()

	result, err := h.matchService.Refresh(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	resp := refreshDTO{Message: result.Message, RateLimited: result.RateLimited}
	if result.Message == usecase.RefreshedMessage {
		refreshed := result.Refreshed
		resp.Refreshed = &refreshed
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}
