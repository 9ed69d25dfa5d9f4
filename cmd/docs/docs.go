// Package docs holds the Swagger document served at /swagger. It is kept in
// step with the handler annotations by hand; run swag init to regenerate it.
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
        "/sync": {
            "post": {
                "description": "Scrapes one vendor account and streams progress as server-sent events (progress, complete, error)",
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "tags": ["sync"],
                "summary": "Start a sync session",
                "parameters": [
                    {"description": "Credential and date range", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StartSyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "Event stream", "schema": {"type": "string"}},
                    "400": {"description": "Invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "A session is already running for this credential", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "Too many requests", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to start sync", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sync/sessions/{credentialId}": {
            "get": {
                "description": "Returns the running session of a credential, or the most recently finished one",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Get sync session status",
                "parameters": [
                    {"type": "string", "description": "Credential ID", "name": "credentialId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SyncSessionResponse"}},
                    "404": {"description": "No session for this credential", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to retrieve session", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sync/last-transaction-date": {
            "get": {
                "description": "Returns the newest stored transaction date of a vendor, used to pick a gap-fill start date",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Get the last stored transaction date",
                "parameters": [
                    {"type": "string", "description": "Vendor", "name": "vendor", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LastTransactionDateResponse"}},
                    "400": {"description": "Missing vendor", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to retrieve date", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/recurring-payments": {
            "get": {
                "description": "Returns one page of derived groups. Pass the snapshot token from the first page to later pages to page over a stable result set.",
                "produces": ["application/json"],
                "tags": ["patterns"],
                "summary": "List installment plans or recurring payments",
                "parameters": [
                    {"enum": ["installments", "recurring"], "type": "string", "description": "installments or recurring", "name": "type", "in": "query", "required": true},
                    {"type": "string", "description": "amount, count, nextPaymentDate, name (installments also totalAmount, remaining)", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "asc or desc", "name": "sortOrder", "in": "query"},
                    {"type": "integer", "description": "Page size (1-200, default 25)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Page offset", "name": "offset", "in": "query"},
                    {"enum": ["monthly", "bi-monthly"], "type": "string", "description": "Recurring only", "name": "frequency", "in": "query"},
                    {"type": "string", "description": "active|completed for installments, active|inactive for recurring", "name": "status", "in": "query"},
                    {"type": "string", "description": "Vendor filter", "name": "vendor", "in": "query"},
                    {"type": "string", "description": "Snapshot token from a previous page", "name": "snapshot", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PatternPageResponse"}},
                    "400": {"description": "Invalid query", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to compute groups", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/non-recurring-exclusions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patterns"],
                "summary": "List recurring exclusions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ExclusionResponse"}}},
                    "500": {"description": "Failed to list exclusions", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Marks a description/account pair as not recurring. Adding the same pair twice returns the existing mark.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patterns"],
                "summary": "Exclude a payment from recurring detection",
                "parameters": [
                    {"description": "Name and account", "name": "exclusion", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateExclusionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ExclusionResponse"}},
                    "400": {"description": "Invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to add exclusion", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/non-recurring-exclusions/{id}": {
            "delete": {
                "tags": ["patterns"],
                "summary": "Remove a recurring exclusion",
                "parameters": [
                    {"type": "string", "description": "Exclusion ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Invalid id", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Exclusion not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to remove exclusion", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/categories/update-by-description": {
            "post": {
                "description": "Sets the category of every stored transaction with the description. With createRule, future transactions with that description get the category too.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Re-categorize transactions by description",
                "parameters": [
                    {"description": "Description and category", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateCategoryByDescriptionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UpdateCategoryByDescriptionResponse"}},
                    "400": {"description": "Invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to update category", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/categories/rules": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "List category rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CategoryRuleResponse"}}},
                    "500": {"description": "Failed to list rules", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/categories/rules/{ruleId}": {
            "delete": {
                "tags": ["categories"],
                "summary": "Delete a category rule",
                "parameters": [
                    {"type": "string", "description": "Rule ID", "name": "ruleId", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Invalid id", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Rule not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to delete rule", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.InlineCredentials": {
            "type": "object",
            "required": ["fields", "vendor"],
            "properties": {
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "vendor": {"type": "string"}
            }
        },
        "dto.SyncOptionsRequest": {
            "type": "object",
            "properties": {
                "extra": {"type": "object", "additionalProperties": {"type": "string"}},
                "resumeMode": {"type": "string", "enum": ["full", "gap_fill"]},
                "timeoutSeconds": {"type": "integer"}
            }
        },
        "dto.StartSyncRequest": {
            "type": "object",
            "properties": {
                "billingCycle": {"type": "string"},
                "credentialId": {"type": "string"},
                "credentials": {"$ref": "#/definitions/dto.InlineCredentials"},
                "options": {"$ref": "#/definitions/dto.SyncOptionsRequest"},
                "startDate": {"type": "string"},
                "vendor": {"type": "string"}
            }
        },
        "dto.SyncSessionResponse": {
            "type": "object",
            "properties": {
                "credentialId": {"type": "string"},
                "error": {"type": "string"},
                "finishedAt": {"type": "string"},
                "hint": {"type": "string"},
                "lastEmittedStep": {"type": "string"},
                "percent": {"type": "integer"},
                "sessionId": {"type": "string"},
                "startDate": {"type": "string"},
                "startedAt": {"type": "string"},
                "state": {"type": "string"},
                "status": {"type": "string"},
                "summary": {"type": "object"},
                "vendor": {"type": "string"}
            }
        },
        "dto.LastTransactionDateResponse": {
            "type": "object",
            "properties": {
                "lastDate": {"type": "string"}
            }
        },
        "dto.PaginationResponse": {
            "type": "object",
            "properties": {
                "hasMore": {"type": "boolean"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "snapshot": {"type": "string"},
                "total": {"type": "integer"}
            }
        },
        "dto.PatternPageResponse": {
            "type": "object",
            "properties": {
                "installments": {"type": "array", "items": {"type": "object"}},
                "pagination": {"$ref": "#/definitions/dto.PaginationResponse"},
                "recurring": {"type": "array", "items": {"type": "object"}},
                "summary": {"type": "object"}
            }
        },
        "dto.CreateExclusionRequest": {
            "type": "object",
            "required": ["account_number", "name"],
            "properties": {
                "account_number": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "dto.ExclusionResponse": {
            "type": "object",
            "properties": {
                "account_number": {"type": "string"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "dto.UpdateCategoryByDescriptionRequest": {
            "type": "object",
            "required": ["description", "newCategory"],
            "properties": {
                "createRule": {"type": "boolean"},
                "description": {"type": "string"},
                "newCategory": {"type": "string"}
            }
        },
        "dto.UpdateCategoryByDescriptionResponse": {
            "type": "object",
            "properties": {
                "transactionsUpdated": {"type": "integer"}
            }
        },
        "dto.CategoryRuleResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "createdAt": {"type": "string"},
                "lastUpdatedAt": {"type": "string"},
                "lastUpdatedBy": {"type": "string"},
                "matchDescription": {"type": "string"},
                "ruleId": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "finsync API",
	Description:      "Transaction sync, categorization and recurring payment detection.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
