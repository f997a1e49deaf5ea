package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CRM API",
        "description": "Client relationship management backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token rotation, password changes"},
        {"name": "Users", "description": "Account management (admin)"},
        {"name": "Clients", "description": "Client records and exports"},
        {"name": "Calls", "description": "Call log"},
        {"name": "Tasks", "description": "Follow-up tasks"},
        {"name": "References", "description": "Statuses, categories, cities"},
        {"name": "Documents", "description": "Client documents and share links"},
        {"name": "Dashboard", "description": "Overview counters"},
        {"name": "Audit", "description": "Audit trail (admin)"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by username and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "201": {"description": "Token pair issued", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Account deactivated", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "201": {"description": "New token pair", "schema": {"$ref": "#/definitions/RefreshResponse"}},
                    "401": {"description": "Invalid or superseded token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Token does not belong to the user", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Invalidate the stored refresh token",
                "responses": {
                    "201": {"description": "Logged out"},
                    "401": {"description": "Missing or invalid access token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change the caller's password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Password changed"},
                    "400": {"description": "Weak password", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "Wrong current password", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "responses": {"200": {"description": "Paged accounts", "schema": {"$ref": "#/definitions/PagedResult"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create an account",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/users/{id}/reset-password": {
            "post": {
                "tags": ["Users"],
                "summary": "Reset a password and force a change on next login",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Password reset"}}
            }
        },
        "/clients": {
            "get": {
                "tags": ["Clients"],
                "summary": "List clients with filters",
                "responses": {"200": {"description": "Paged clients", "schema": {"$ref": "#/definitions/PagedResult"}}}
            },
            "post": {
                "tags": ["Clients"],
                "summary": "Create a client",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/clients/export": {
            "get": {
                "tags": ["Clients"],
                "summary": "Export the filtered client list as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "CSV attachment"}}
            }
        },
        "/clients/{id}/summary.pdf": {
            "get": {
                "tags": ["Clients"],
                "summary": "Export a client summary as PDF",
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF attachment"}}
            }
        },
        "/documents/client/{clientId}": {
            "get": {
                "tags": ["Documents"],
                "summary": "List a client's documents",
                "parameters": [{"name": "clientId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Documents"}}
            }
        },
        "/documents/upload/{clientId}": {
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"201": {"description": "Uploaded"}}
            }
        },
        "/documents/{id}/share": {
            "post": {
                "tags": ["Documents"],
                "summary": "Issue an expiring public download link",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Share link", "schema": {"$ref": "#/definitions/ShareLink"}}}
            }
        },
        "/calls": {
            "get": {
                "tags": ["Calls"],
                "summary": "List calls",
                "responses": {"200": {"description": "Paged calls", "schema": {"$ref": "#/definitions/PagedResult"}}}
            },
            "post": {
                "tags": ["Calls"],
                "summary": "Log a call, optionally updating the client outcome",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks",
                "responses": {"200": {"description": "Paged tasks", "schema": {"$ref": "#/definitions/PagedResult"}}}
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a task",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Overview counters and recent activity",
                "responses": {"200": {"description": "Overview"}}
            }
        },
        "/audit/logs": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit records, newest first",
                "responses": {"200": {"description": "Paged audit records", "schema": {"$ref": "#/definitions/PagedResult"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "firstLogin": {"type": "boolean"}
            }
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "refreshToken": {"type": "string"}
            },
            "required": ["userId", "refreshToken"]
        },
        "RefreshResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"}
            }
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "currentPassword": {"type": "string"},
                "newPassword": {"type": "string"}
            },
            "required": ["currentPassword", "newPassword"]
        },
        "ShareLink": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "expiresAt": {"type": "string", "format": "date-time"}
            }
        },
        "PagedResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"}
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
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
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
