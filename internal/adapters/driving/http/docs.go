package http

import "github.com/swaggo/swag"

// SwaggerInfo holds the exported OpenAPI metadata.
// Version and Host are overwritten at start-up.
var SwaggerInfo = &swag.Spec{
	Version:          "dev",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "ragsense API",
	Description:      "Hybrid retrieval over Jira, Confluence and file share collections with optional generated answers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/StatusResponse"}},
                              "503": {"description": "Document store unreachable", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/version": {
            "get": {"tags": ["Health"], "summary": "Get API version", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VersionResponse"}}}}
        },
        "/capabilities": {
            "get": {"tags": ["Health"], "summary": "Get capabilities", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Capabilities"}},
                              "404": {"description": "Not reported by this server", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/sources": {
            "get": {"tags": ["Sources"], "summary": "List sources", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/SourceInfo"}}}}}
        },
        "/search": {
            "post": {"tags": ["Search"], "summary": "Search", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/SearchRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/SearchOutcome"}},
                              "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                              "502": {"description": "Language model failed", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                              "503": {"description": "Document store or embedding service unavailable", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/generate": {
            "post": {"tags": ["LLM"], "summary": "Generate", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/LLMResponse"}},
                              "502": {"description": "Language model failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/llm/doc_query": {
            "post": {"tags": ["LLM"], "summary": "Ask about a document", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/DocQueryRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/LLMResponse"}},
                              "400": {"description": "Invalid request or empty document", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                              "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                              "502": {"description": "Language model failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/auth/token": {
            "post": {"tags": ["Authentication"], "summary": "Issue operator token", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenResponse"}},
                              "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/admin/reindex": {
            "post": {"tags": ["Admin"], "summary": "Reindex a collection", "security": [{"BearerAuth": []}],
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ReindexHTTPRequest"}},
                               {"in": "query", "name": "wait", "type": "boolean", "description": "Run synchronously"}],
                "responses": {"200": {"description": "Finished run"}, "202": {"description": "Queued task"},
                              "409": {"description": "Reindex already running", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/admin/reindex/all": {
            "post": {"tags": ["Admin"], "summary": "Reindex all collections", "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"202": {"description": "Queued task"},
                              "503": {"description": "Task queue unavailable", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
        },
        "/admin/reindex/runs": {
            "get": {"tags": ["Admin"], "summary": "List reindex runs", "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "collection", "type": "string"},
                               {"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}}},
        "StatusResponse": {"type": "object", "properties": {"status": {"type": "string"}}},
        "VersionResponse": {"type": "object", "properties": {"version": {"type": "string"}}},
        "Capabilities": {"type": "object", "properties": {
            "queueBackend": {"type": "string"}, "embeddingModel": {"type": "string"}, "dimensions": {"type": "integer"},
            "llmModel": {"type": "string"}, "searchModes": {"type": "array", "items": {"type": "string", "enum": ["Keyword", "Embedding", "Hybrid"]}},
            "answers": {"type": "boolean"}, "reindex": {"type": "boolean"}}},
        "SourceInfo": {"type": "object", "properties": {
            "name": {"type": "string"}, "type": {"type": "string", "enum": ["Jira", "Confluence", "Network Drive", "Unknown"]},
            "available": {"type": "boolean"}, "embeddings": {"type": "boolean"}}},
        "Filters": {"type": "object", "properties": {
            "createdFrom": {"type": "string", "example": "2024-01-01"}, "createdTo": {"type": "string", "example": "2024-12-31"},
            "creators": {"type": "array", "items": {"type": "string"}}, "sourceTypes": {"type": "array", "items": {"type": "string"}}}},
        "SearchRequest": {"type": "object", "properties": {
            "query": {"type": "string"}, "sources": {"type": "array", "items": {"type": "string"}},
            "searchType": {"type": "string", "enum": ["Keyword", "Embedding", "Hybrid"]},
            "topK": {"type": "integer", "default": 10}, "enableGenerative": {"type": "boolean"},
            "promptExtension": {"type": "string"}, "generativeDocs": {"type": "integer", "default": 1},
            "bm25Weight": {"type": "number", "default": 1.0}, "embeddingWeight": {"type": "number", "default": 35.0},
            "filters": {"$ref": "#/definitions/Filters"}}},
        "RetrievedDocument": {"type": "object", "properties": {
            "sourceType": {"type": "string"}, "id": {"type": "string"}, "browseUrl": {"type": "string"},
            "title": {"type": "string"}, "summary": {"type": "string"}, "creator": {"type": "string"},
            "created": {"type": "string"}, "score": {"type": "number"}, "content": {"type": "object"},
            "sizeBytes": {"type": "integer"}, "pageNumber": {"type": "integer"}}},
        "SearchOutcome": {"type": "object", "properties": {
            "results": {"type": "array", "items": {"$ref": "#/definitions/RetrievedDocument"}}, "answer": {"type": "string"}}},
        "GenerateRequest": {"type": "object", "properties": {"prompt": {"type": "string"}}},
        "DocQueryRequest": {"type": "object", "properties": {
            "index": {"type": "string"}, "doc_id": {"type": "string"}, "user_query": {"type": "string"}}},
        "LLMResponse": {"type": "object", "properties": {"response": {"type": "string"}}},
        "TokenRequest": {"type": "object", "properties": {"apiKey": {"type": "string"}, "subject": {"type": "string"}}},
        "TokenResponse": {"type": "object", "properties": {"token": {"type": "string"}, "expires_at": {"type": "string"}}},
        "ReindexHTTPRequest": {"type": "object", "properties": {
            "collection": {"type": "string"}, "batchSize": {"type": "integer", "default": 128}, "scrollTtl": {"type": "string", "default": "2m"}}}
    }
}`
