// Package docs registers the OpenAPI document for the prediction API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/predictions": {
            "post": {
                "description": "Home/draw/away probabilities with per-model explanations, likely scorelines and data-quality metadata",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Predictions"],
                "summary": "Predict Match Outcome",
                "parameters": [
                    {
                        "description": "Fixture",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.PredictionInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PredictionOutput"}},
                    "400": {"description": "Invalid fixture", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Match store unavailable", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/predictions/batch": {
            "post": {
                "description": "Results keep request order; a fixture that cannot be predicted carries a failure marker instead",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Predictions"],
                "summary": "Batch Predict",
                "parameters": [
                    {
                        "description": "Fixtures",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.BatchPredictionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BatchPredictionResponse"}},
                    "400": {"description": "Invalid batch", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Match store unavailable", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/stats/matches": {
            "get": {
                "description": "Outcome percentages, btts, comebacks and average goals. detailed=true adds goal splits, over/under lines, frequent scorelines and half-time transitions.",
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Match Stats",
                "parameters": [
                    {"type": "string", "description": "Team name", "name": "team", "in": "query"},
                    {"type": "string", "description": "Opponent (requires team)", "name": "opponent", "in": "query"},
                    {"type": "string", "description": "home or away (requires team)", "name": "venue", "in": "query"},
                    {"type": "string", "description": "Competition", "name": "competition", "in": "query"},
                    {"type": "string", "description": "Season", "name": "season", "in": "query"},
                    {"type": "string", "description": "RFC3339 or YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339 or YYYY-MM-DD", "name": "to", "in": "query"},
                    {"type": "integer", "default": 100, "description": "Most recent N matches", "name": "limit", "in": "query"},
                    {"type": "boolean", "description": "Include detailed breakdowns", "name": "detailed", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DetailedMatchStats"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Match store unavailable", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/teams/{team}/features": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Teams"],
                "summary": "Team Features",
                "parameters": [
                    {"type": "string", "description": "Team name", "name": "team", "in": "path", "required": true},
                    {"type": "string", "description": "Competition", "name": "competition", "in": "query"},
                    {"type": "string", "description": "Season", "name": "season", "in": "query"},
                    {"type": "string", "description": "Only use matches before this date", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TeamFeatures"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Match store unavailable", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/teams/{home}/h2h/{away}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Teams"],
                "summary": "Head To Head",
                "parameters": [
                    {"type": "string", "description": "Home team", "name": "home", "in": "path", "required": true},
                    {"type": "string", "description": "Away team", "name": "away", "in": "path", "required": true},
                    {"type": "string", "description": "Competition", "name": "competition", "in": "query"},
                    {"type": "string", "description": "Season", "name": "season", "in": "query"},
                    {"type": "string", "description": "Only use matches before this date", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HeadToHead"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Match store unavailable", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/ensemble/weights": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Predictions"],
                "summary": "Ensemble Weights",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WeightsResponse"}}
                }
            }
        },
        "/ensemble/feedback": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Predictions"],
                "summary": "Submit Model Feedback",
                "parameters": [
                    {
                        "description": "Per-model accuracy",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.PredictionFeedback"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WeightsResponse"}},
                    "400": {"description": "Invalid feedback", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.MatchContext": {
            "type": "object",
            "properties": {
                "competition": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "season": {"type": "string"}
            }
        },
        "models.PredictionInput": {
            "type": "object",
            "required": ["home_team", "away_team"],
            "properties": {
                "home_team": {"type": "string", "maxLength": 128},
                "away_team": {"type": "string", "maxLength": 128},
                "half_time_home_goals": {"type": "integer", "minimum": 0, "maximum": 30},
                "half_time_away_goals": {"type": "integer", "minimum": 0, "maximum": 30},
                "context": {"$ref": "#/definitions/models.MatchContext"}
            }
        },
        "models.ProbabilityTriple": {
            "type": "object",
            "properties": {
                "home": {"type": "number"},
                "draw": {"type": "number"},
                "away": {"type": "number"}
            }
        },
        "models.FeatureContribution": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "number"},
                "importance": {"type": "number"}
            }
        },
        "models.ScorelineProbability": {
            "type": "object",
            "properties": {
                "home_goals": {"type": "integer"},
                "away_goals": {"type": "integer"},
                "probability": {"type": "number"}
            }
        },
        "models.ModelExplanation": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "weight": {"type": "number"},
                "probabilities": {"$ref": "#/definitions/models.ProbabilityTriple"},
                "confidence": {"type": "number"},
                "top_features": {"type": "array", "items": {"$ref": "#/definitions/models.FeatureContribution"}}
            }
        },
        "models.PredictionMetadata": {
            "type": "object",
            "properties": {
                "prediction_id": {"type": "string"},
                "model_version": {"type": "string"},
                "generated_at": {"type": "string", "format": "date-time"},
                "data_quality_score": {"type": "number"},
                "confidence_tier": {"type": "string", "enum": ["HIGH", "MEDIUM", "LOW"]},
                "warning_flags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.PredictionOutput": {
            "type": "object",
            "properties": {
                "home_team": {"type": "string"},
                "away_team": {"type": "string"},
                "probabilities": {"$ref": "#/definitions/models.ProbabilityTriple"},
                "most_likely_outcome": {"type": "string", "enum": ["H", "D", "A"]},
                "confidence_score": {"type": "number"},
                "scoreline_predictions": {"type": "array", "items": {"$ref": "#/definitions/models.ScorelineProbability"}},
                "explanations": {"type": "array", "items": {"$ref": "#/definitions/models.ModelExplanation"}},
                "metadata": {"$ref": "#/definitions/models.PredictionMetadata"}
            }
        },
        "models.PredictionFailure": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.BatchPredictionRequest": {
            "type": "object",
            "required": ["fixtures"],
            "properties": {
                "fixtures": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/models.PredictionInput"}}
            }
        },
        "models.BatchPredictionResult": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "prediction": {"$ref": "#/definitions/models.PredictionOutput"},
                "failure": {"$ref": "#/definitions/models.PredictionFailure"}
            }
        },
        "models.BatchPredictionResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.BatchPredictionResult"}},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "models.DetailedMatchStats": {
            "type": "object",
            "properties": {
                "total_matches": {"type": "integer"},
                "home_win_percentage": {"type": "number"},
                "draw_percentage": {"type": "number"},
                "away_win_percentage": {"type": "number"},
                "btts_percentage": {"type": "number"},
                "comeback_percentage": {"type": "number"},
                "avg_goals": {"type": "number"},
                "over_2_5_percentage": {"type": "number"},
                "frequent_results": {"type": "array", "items": {"type": "object"}},
                "half_time": {"type": "object"}
            }
        },
        "models.TeamFeatures": {
            "type": "object",
            "properties": {
                "team": {"type": "string"}
            },
            "additionalProperties": true
        },
        "models.HeadToHead": {
            "type": "object",
            "properties": {
                "home_team": {"type": "string"},
                "away_team": {"type": "string"}
            },
            "additionalProperties": true
        },
        "models.PredictionFeedback": {
            "type": "object",
            "required": ["model_accuracy"],
            "properties": {
                "prediction_id": {"type": "string"},
                "model_accuracy": {"type": "object", "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}},
                "learning_rate": {"type": "number"},
                "sample_size": {"type": "integer"}
            }
        },
        "models.WeightsResponse": {
            "type": "object",
            "properties": {
                "weights": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Football Match Prediction API",
	Description:      "Ensemble match outcome predictions and match history statistics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
