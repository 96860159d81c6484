// Package apidocs registers the OpenAPI document of the runtimed HTTP API.
package apidocs

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
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "ok", "schema": {"type": "string"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "description": "Ready once a reconciliation has brought the runtime container up.",
                "responses": {
                    "200": {"description": "ready", "schema": {"type": "string"}},
                    "503": {"description": "not ready", "schema": {"type": "string"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Manager status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/runtime/check": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runtime"],
                "summary": "Detect the container engine",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.InstallStatus"}},
                    "500": {"description": "probe not configured", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/runtime/port": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runtime"],
                "summary": "Runtime port and endpoints",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PortResponse"}},
                    "500": {"description": "port store failure", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/runtime/ensure": {
            "post": {
                "produces": ["application/json"],
                "tags": ["runtime"],
                "summary": "Ensure the runtime container is running",
                "description": "Pulls, creates, starts or reuses the runtime container. Concurrent requests share one reconciliation.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EnsureResponse"}},
                    "500": {"description": "config or start failure", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "engine, pull or inspect failure", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "no port available or timed out", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["runtime"],
                "summary": "Progress event stream (websocket)",
                "description": "Upgrades to a websocket that carries one JSON progress event per text frame.",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        }
    },
    "definitions": {
        "types.InstallStatus": {
            "type": "object",
            "properties": {
                "installed": {"type": "boolean", "example": true},
                "running": {"type": "boolean", "example": true}
            }
        },
        "types.Endpoints": {
            "type": "object",
            "properties": {
                "local": {"type": "string", "example": "http://127.0.0.1:3100"},
                "tts": {"type": "string", "example": "http://127.0.0.1:3100/tts"},
                "download_ws": {"type": "string", "example": "ws://127.0.0.1:3100/ws/download-model"}
            }
        },
        "types.EnsureResponse": {
            "type": "object",
            "properties": {
                "ready": {"type": "boolean", "example": true},
                "port": {"type": "integer", "example": 3100},
                "endpoints": {"$ref": "#/definitions/types.Endpoints"}
            }
        },
        "types.PortResponse": {
            "type": "object",
            "properties": {
                "port": {"type": "integer", "example": 3100},
                "endpoints": {"$ref": "#/definitions/types.Endpoints"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "kind": {"type": "string", "example": "no_port_available"},
                "code": {"type": "integer", "example": 503}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "idle"},
                "ready": {"type": "boolean", "example": true},
                "image": {"type": "string", "example": "voicestudio/model-library:latest"},
                "container": {"type": "string"},
                "container_id": {"type": "string"},
                "port": {"type": "integer", "example": 3100},
                "last_action": {"type": "string", "example": "reuse"},
                "last_error": {"type": "string"},
                "last_op_id": {"type": "string"},
                "last_run_unix": {"type": "integer"},
                "reconciles_total": {"type": "integer"},
                "failures_total": {"type": "integer"},
                "subscribers": {"type": "integer"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
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
	Title:            "runtimed API",
	Description:      "Lifecycle manager for the model runtime container.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
