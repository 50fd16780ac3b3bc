package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Thryve Staffing API",
        "description": "Instructor staffing coordination: schedules, shift swaps, coverage pools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Staffing", "description": "Swap requests, coverage pool, schedules, settings"}
    ],
    "paths": {
        "/staffing/schedule": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Schedule for the caller",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"},
                    {"name": "instructorId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/dashboard": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Studio staffing dashboard",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/swap-requests": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Swap requests visible to the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/pending-approvals": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Swaps awaiting studio approval",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/request-swap": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Create a swap request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapRequestInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/staffing/accept-swap": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Accept a swap request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapDecisionInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/reject-swap": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Reject a swap request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapDecisionInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/approve-swap": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Studio decision on an escalated swap",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapApprovalInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/coverage-pool": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Open coverage requests for the studio",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/coverage-requests": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Coverage requests the caller initiated or applied to",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/request-coverage": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Open a coverage request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CoverageRequestInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/staffing/apply-coverage": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Apply for an open coverage request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CoverageApplyInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/resolve-coverage": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Pick an applicant and fill the class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CoverageResolveInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/staffing/cancel-coverage": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Withdraw an open coverage request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CoverageCancelInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/reassign-class": {
            "post": {
                "tags": ["Staffing"],
                "summary": "Directly reassign a class (studio only)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReassignInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/instructors": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Studio instructor roster",
                "parameters": [
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staffing/settings": {
            "get": {
                "tags": ["Staffing"],
                "summary": "Studio staffing settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Staffing"],
                "summary": "Update studio staffing settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PolicyUpdateInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SwapRequestInput": {
            "type": "object",
            "required": ["classId", "recipientInstructorId"],
            "properties": {
                "classId": {"type": "string"},
                "recipientInstructorId": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "SwapDecisionInput": {
            "type": "object",
            "required": ["swapRequestId"],
            "properties": {
                "swapRequestId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "SwapApprovalInput": {
            "type": "object",
            "required": ["swapRequestId"],
            "properties": {
                "swapRequestId": {"type": "string"},
                "approved": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        },
        "CoverageRequestInput": {
            "type": "object",
            "required": ["classId"],
            "properties": {
                "classId": {"type": "string"},
                "message": {"type": "string"},
                "urgent": {"type": "boolean"}
            }
        },
        "CoverageApplyInput": {
            "type": "object",
            "required": ["coverageRequestId"],
            "properties": {
                "coverageRequestId": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "CoverageResolveInput": {
            "type": "object",
            "required": ["coverageRequestId", "instructorId"],
            "properties": {
                "coverageRequestId": {"type": "string"},
                "instructorId": {"type": "string"}
            }
        },
        "CoverageCancelInput": {
            "type": "object",
            "required": ["coverageRequestId"],
            "properties": {
                "coverageRequestId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReassignInput": {
            "type": "object",
            "required": ["classId", "instructorId"],
            "properties": {
                "classId": {"type": "string"},
                "instructorId": {"type": "string"}
            }
        },
        "PolicyUpdateInput": {
            "type": "object",
            "properties": {
                "requireApproval": {"type": "boolean"},
                "maxWeeklyHours": {"type": "number"},
                "minHoursBetweenClasses": {"type": "number"},
                "allowSelfSwap": {"type": "boolean"},
                "allowCoverageRequest": {"type": "boolean"},
                "notifyOnSwapRequest": {"type": "boolean"},
                "notifyOnCoverageRequest": {"type": "boolean"},
                "swapExpiryHours": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
