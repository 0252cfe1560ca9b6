// Package docs registers the OpenAPI document of the AstraMed HTTP API.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service banner",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/answer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["qa"],
                "summary": "Answer a question",
                "description": "Routes the question, retrieves similar medical QA pairs and synthesizes an answer.",
                "parameters": [
                    {"description": "Question", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.QueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ResponseResult"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "502": {"description": "Upstream failure", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service unavailable", "schema": {"$ref": "#/definitions/response.Response"}},
                    "504": {"description": "Timeout", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/feedback": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["qa"],
                "summary": "Record answer feedback",
                "parameters": [
                    {"description": "Feedback", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.FeedbackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FeedbackResponse"}},
                    "400": {"description": "Invalid feedback", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Component health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}},
                    "503": {"description": "Degraded", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Build version",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "model.QueryRequest": {
            "type": "object",
            "required": ["question"],
            "properties": {
                "question": {"type": "string", "maxLength": 4000},
                "temperature": {"type": "number", "minimum": 0, "maximum": 2},
                "language": {"type": "string", "example": "fr"},
                "similarity_threshold": {"type": "number", "minimum": 0, "maximum": 1},
                "session_id": {"type": "string", "maxLength": 128}
            }
        },
        "model.ResponseResult": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["general", "medical", "unknown"]},
                "generated_response": {"type": "string"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/model.Answer"}}
            }
        },
        "model.Answer": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "metadata": {"$ref": "#/definitions/model.AnswerMetadata"}
            }
        },
        "model.AnswerMetadata": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "similarity_score": {"type": "number"},
                "focus_area": {"type": "string"}
            }
        },
        "model.FeedbackRequest": {
            "type": "object",
            "required": ["question", "rating"],
            "properties": {
                "session_id": {"type": "string", "maxLength": 128},
                "question": {"type": "string", "maxLength": 4000},
                "rating": {"type": "integer", "enum": [0, 1]},
                "comments": {"type": "string", "maxLength": 4000}
            }
        },
        "handler.FeedbackResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "request_id": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "AstraMed API",
	Description:      "Medical question answering over a curated QA corpus.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
