package models

type BatchPredictionRequest struct {
	Fixtures []PredictionInput `json:"fixtures" validate:"required,min=1"`
}

type BatchPredictionResponse struct {
	Results   []BatchPredictionResult `json:"results"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
}

type StatsQueryRequest struct {
	Team        string `json:"team" validate:"omitempty,max=128"`
	Opponent    string `json:"opponent" validate:"omitempty,max=128"`
	Venue       string `json:"venue" validate:"omitempty,oneof=home away"`
	Competition string `json:"competition" validate:"omitempty,max=128"`
	Season      string `json:"season" validate:"omitempty,max=32"`
	From        string `json:"from"` // RFC3339 or YYYY-MM-DD
	To          string `json:"to"`
	Limit       int    `json:"limit" validate:"omitempty,min=1,max=1000"`
	Detailed    bool   `json:"detailed"`
}

type WeightsResponse struct {
	Weights EnsembleWeights `json:"weights"`
}
