package handler

import (
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/model"
)

type RewardHandler struct {
	feed   *feed.Service
	logger *slog.Logger
}

func NewRewardHandler(svc *feed.Service, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{feed: svc, logger: logger.With("handler", "reward")}
}

type rewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	PointsCost  int    `json:"pointsCost"`
	Category    string `json:"category"`
	Stock       *int   `json:"stock"`
	Available   *bool  `json:"available"`
}

func (r rewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ImageURL, is.URL),
		validation.Field(&r.PointsCost, validation.Min(0)),
		validation.Field(&r.Stock, validation.Min(0)),
	)
}

func (r rewardRequest) reward() model.Reward {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return model.Reward{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		ImageURL:    r.ImageURL,
		PointsCost:  r.PointsCost,
		Category:    model.RewardCategory,
		CategoryRaw: r.Category,
		Stock:       r.Stock,
		Available:   available,
	}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.Rewards(r.Context())
	if err != nil {
		writeError(w, h.logger, "list rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *RewardHandler) Claimed(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.ClaimedRewards(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, "list claimed rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decode(w, r, &req) {
		return
	}
	reward, err := h.feed.CreateReward(r.Context(), req.reward())
	if err != nil {
		writeError(w, h.logger, "create reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req rewardRequest
	if !decode(w, r, &req) {
		return
	}
	reward, err := h.feed.UpdateReward(r.Context(), id, req.reward())
	if err != nil {
		writeError(w, h.logger, "update reward", err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.feed.DeleteReward(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete reward", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Claim spends the caller's berries on a reward.
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	claim, err := h.feed.ClaimReward(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, h.logger, "claim reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}
