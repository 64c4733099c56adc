package handlers

import (
	"net/http"

	"github.com/footyodds/stats-api/internal/models"
)

// Predict returns the ensemble prediction for one fixture
// @Summary Predict Match Outcome
// @Description Home/draw/away probabilities with per-model explanations, likely scorelines and data-quality metadata
// @Tags Predictions
// @Accept json
// @Produce json
// @Param body body models.PredictionInput true "Fixture"
// @Success 200 {object} models.PredictionOutput
// @Failure 400 {object} map[string]string "Invalid fixture"
// @Failure 503 {object} map[string]string "Match store unavailable"
// @Router /predictions [post]
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var input models.PredictionInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	out, err := h.predictions.Predict(r.Context(), input)
	if err != nil {
		h.predictionErrorResponse(w, err, "predict")
		return
	}

	h.jsonResponse(w, http.StatusOK, out)
}

// PredictBatch predicts several fixtures at once
// @Summary Batch Predict
// @Description Results keep request order; a fixture that cannot be predicted carries a failure marker instead
// @Tags Predictions
// @Accept json
// @Produce json
// @Param body body models.BatchPredictionRequest true "Fixtures"
// @Success 200 {object} models.BatchPredictionResponse
// @Failure 400 {object} map[string]string "Invalid batch"
// @Failure 503 {object} map[string]string "Match store unavailable"
// @Router /predictions/batch [post]
func (h *Handler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchPredictionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.predictions.PredictBatch(r.Context(), req.Fixtures)
	if err != nil {
		h.predictionErrorResponse(w, err, "predict batch")
		return
	}

	resp := models.BatchPredictionResponse{Results: results}
	for _, res := range results {
		if res.Failure != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// GetEnsembleWeights returns the weight each model currently carries
// @Summary Ensemble Weights
// @Tags Predictions
// @Produce json
// @Success 200 {object} models.WeightsResponse
// @Router /ensemble/weights [get]
func (h *Handler) GetEnsembleWeights(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, models.WeightsResponse{Weights: h.predictions.Weights()})
}

// SubmitFeedback shifts ensemble weight towards models that were accurate
// @Summary Submit Model Feedback
// @Tags Predictions
// @Accept json
// @Produce json
// @Param body body models.PredictionFeedback true "Per-model accuracy"
// @Success 200 {object} models.WeightsResponse
// @Failure 400 {object} map[string]string "Invalid feedback"
// @Router /ensemble/feedback [post]
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var fb models.PredictionFeedback
	if !h.decodeJSON(w, r, &fb) {
		return
	}

	weights, err := h.predictions.ApplyFeedback(r.Context(), fb)
	if err != nil {
		h.predictionErrorResponse(w, err, "apply feedback")
		return
	}

	h.jsonResponse(w, http.StatusOK, models.WeightsResponse{Weights: weights})
}
