package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "RSO Membership & Competition API",
        "description": "Unit hierarchy membership, report verification and competition rankings",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization"
        }
    },
    "tags": [
        {
            "name": "Units",
            "description": "Organisational hierarchy"
        },
        {
            "name": "Members",
            "description": "Positions and propagation"
        },
        {
            "name": "Applications",
            "description": "Join requests"
        },
        {
            "name": "Reports",
            "description": "Report submission and verification"
        },
        {
            "name": "Rankings",
            "description": "Metric places and overall standings"
        },
        {
            "name": "System",
            "description": "Operational counters"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Database unreachable"
                    }
                }
            }
        },
        "/units": {
            "post": {
                "tags": [
                    "Units"
                ],
                "summary": "Register an organisational unit",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateUnitRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/parents": {
            "patch": {
                "tags": [
                    "Units"
                ],
                "summary": "Replace the parent links of a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReparentUnitRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/members": {
            "get": {
                "tags": [
                    "Members"
                ],
                "summary": "List the members of a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Members"
                ],
                "summary": "Place a user into a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AssignPositionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/members/count": {
            "get": {
                "tags": [
                    "Members"
                ],
                "summary": "Count the members of a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/members/{userId}": {
            "delete": {
                "tags": [
                    "Members"
                ],
                "summary": "Remove a user from a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/users/{userId}/positions": {
            "delete": {
                "tags": [
                    "Members"
                ],
                "summary": "Remove every position a user holds",
                "parameters": [
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/units/{id}/applications": {
            "get": {
                "tags": [
                    "Applications"
                ],
                "summary": "List pending applications of a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Applications"
                ],
                "summary": "Apply to join a unit",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/ApplyRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/applications/{applicationId}/accept": {
            "post": {
                "tags": [
                    "Applications"
                ],
                "summary": "Accept an application",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "applicationId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/AcceptApplicationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/units/{id}/applications/{applicationId}": {
            "delete": {
                "tags": [
                    "Applications"
                ],
                "summary": "Reject an application",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "applicationId",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/reports": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Submit a competition report as draft",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateReportRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Get a report with its events",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Reports"
                ],
                "summary": "Edit a draft or rejected report",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateReportRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{id}/send": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Send a draft report for verification",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{id}/district-review": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "District review of a sent report",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DistrictReviewRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{id}/central-approve": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Central approval; scores the report and refreshes rankings",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{id}/central-reject": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Central rejection of a report",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RejectReportRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{id}/history": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Verification history of a report",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/competitions/{id}/rankings": {
            "get": {
                "tags": [
                    "Rankings"
                ],
                "summary": "Ranking table of a competition pool",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "tandem",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/competitions/{id}/rankings/recompute": {
            "post": {
                "tags": [
                    "Rankings"
                ],
                "summary": "Recompute metric places and overall places",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/RecomputeRankingRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/competitions/{id}/scores/recompute": {
            "post": {
                "tags": [
                    "Rankings"
                ],
                "summary": "Recompute report scores",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "metric",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Scoring and ranking counters",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateUnitRequest": {
            "type": "object",
            "properties": {
                "level": {
                    "type": "string",
                    "enum": [
                        "central",
                        "district",
                        "regional",
                        "local",
                        "educational",
                        "detachment"
                    ]
                },
                "name": {
                    "type": "string"
                },
                "commander_id": {
                    "type": "string"
                },
                "region_id": {
                    "type": "string"
                },
                "about": {
                    "type": "string"
                },
                "central_id": {
                    "type": "string"
                },
                "district_id": {
                    "type": "string"
                },
                "regional_id": {
                    "type": "string"
                },
                "local_id": {
                    "type": "string"
                },
                "educational_id": {
                    "type": "string"
                }
            },
            "required": [
                "level",
                "name",
                "commander_id"
            ]
        },
        "ReparentUnitRequest": {
            "type": "object",
            "properties": {
                "central_id": {
                    "type": "string"
                },
                "district_id": {
                    "type": "string"
                },
                "regional_id": {
                    "type": "string"
                },
                "local_id": {
                    "type": "string"
                },
                "educational_id": {
                    "type": "string"
                }
            }
        },
        "AssignPositionRequest": {
            "type": "object",
            "properties": {
                "user_id": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "is_trusted": {
                    "type": "boolean"
                }
            },
            "required": [
                "user_id"
            ]
        },
        "ApplyRequest": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                }
            }
        },
        "AcceptApplicationRequest": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                }
            }
        },
        "ReportEventInput": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "participants": {
                    "type": "integer"
                },
                "start_date": {
                    "type": "string",
                    "format": "date"
                },
                "end_date": {
                    "type": "string",
                    "format": "date"
                },
                "is_interregional": {
                    "type": "boolean"
                },
                "prize_place": {
                    "type": "integer"
                },
                "event_happened": {
                    "type": "boolean"
                },
                "amount": {
                    "type": "string"
                },
                "link": {
                    "type": "string"
                }
            }
        },
        "CreateReportRequest": {
            "type": "object",
            "properties": {
                "participant_id": {
                    "type": "string"
                },
                "metric_key": {
                    "type": "string"
                },
                "fields": {
                    "type": "object"
                },
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ReportEventInput"
                    }
                }
            },
            "required": [
                "participant_id",
                "metric_key"
            ]
        },
        "UpdateReportRequest": {
            "type": "object",
            "properties": {
                "fields": {
                    "type": "object"
                },
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ReportEventInput"
                    }
                }
            }
        },
        "DistrictReviewRequest": {
            "type": "object",
            "properties": {
                "approve": {
                    "type": "boolean"
                },
                "fields": {
                    "type": "object"
                },
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ReportEventInput"
                    }
                },
                "excluded_events": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "reasons": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "RejectReportRequest": {
            "type": "object",
            "properties": {
                "reasons": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "reasons"
            ]
        },
        "RecomputeRankingRequest": {
            "type": "object",
            "properties": {
                "metrics": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
