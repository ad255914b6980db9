package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SchoolHire Match API",
        "description": "Candidate matching, aggregation and notification pipeline",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Board", "description": "Merged candidate board per job"},
        {"name": "Matches", "description": "Match pipeline status management"},
        {"name": "Notifications", "description": "Outbound notification queue"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/jobs/{id}/board": {
            "get": {
                "tags": ["Board"],
                "summary": "Get candidate board",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "archetype", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/jobs/{id}/matches": {
            "post": {
                "tags": ["Matches"],
                "summary": "Find matches for job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/matches/{id}/status": {
            "patch": {
                "tags": ["Matches"],
                "summary": "Update match status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/matches/status/bulk": {
            "post": {
                "tags": ["Matches"],
                "summary": "Bulk update match status",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/notifications/process": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Process notification queue",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ProcessQueueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CandidateView": {
            "type": "object",
            "properties": {
                "match_id": {"type": "string"},
                "job_id": {"type": "string"},
                "candidate_id": {"type": "string"},
                "candidate_name": {"type": "string"},
                "job_title": {"type": "string"},
                "score": {"type": "integer"},
                "status": {"type": "string"},
                "reason": {"type": "string"},
                "notes": {"type": "string"},
                "synthesized": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["status"]
        },
        "BulkStatusRequest": {
            "type": "object",
            "properties": {
                "match_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "status": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["match_ids", "status"]
        },
        "BulkStatusResult": {
            "type": "object",
            "properties": {
                "updated": {"type": "integer"},
                "failed": {"type": "integer"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "FindMatchesResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "matches": {"type": "array", "items": {"type": "object"}},
                "created": {"type": "integer"}
            }
        },
        "ProcessQueueRequest": {
            "type": "object",
            "properties": {
                "batch_size": {"type": "integer"}
            }
        },
        "QueueStats": {
            "type": "object",
            "properties": {
                "processed": {"type": "integer"},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
