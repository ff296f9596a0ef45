// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g server/main.go -o docs
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
        "/bookings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Book a table for a party",
                "parameters": [
                    {"type": "string", "description": "Client retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Booking", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/bookings.CreateBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Out of hours, capacity exceeded or invalid input"},
                    "404": {"description": "Venue not found"},
                    "409": {"description": "Concurrent update"},
                    "422": {"description": "Idempotency key reused with a different request"},
                    "503": {"description": "Store unavailable"}
                }
            }
        },
        "/bookings/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cancellations"],
                "summary": "Cancel a confirmed booking",
                "parameters": [
                    {"description": "Cancellation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cancellation.CancelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Already cancelled"},
                    "403": {"description": "Not the owner"},
                    "404": {"description": "Booking not found"}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Get one of the caller's bookings",
                "parameters": [{"type": "string", "description": "Booking ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}
            }
        },
        "/bookings/{id}/refund-quote": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cancellations"],
                "summary": "Preview the refund a cancel would produce now",
                "parameters": [{"type": "string", "description": "Booking ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/users/bookings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "List the caller's bookings, latest first",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ratings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ratings"],
                "summary": "Rate a venue from 1 to 5",
                "parameters": [
                    {"description": "Rating", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/venues.SubmitRatingRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid rating"}, "404": {"description": "Venue not found"}}
            }
        },
        "/venues": {
            "get": {
                "produces": ["application/json"],
                "tags": ["venues"],
                "summary": "List venues",
                "parameters": [
                    {"type": "string", "name": "kind", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/venues/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["venues"],
                "summary": "Get a venue with its table layout",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/venues/{id}/availability": {
            "get": {
                "produces": ["application/json"],
                "tags": ["venues"],
                "summary": "Remaining capacity for a venue",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List the caller's notifications",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/connections": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["connections"],
                "summary": "List the caller's connections",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["connections"],
                "summary": "Ask another user to connect",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already requested"}}
            }
        },
        "/admin/analytics/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin-analytics"],
                "summary": "Occupancy, revenue and cancellation overview",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin role required"}}
            }
        },
        "/admin/analytics/capacity-drift": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin-analytics"],
                "summary": "Venues whose booked count disagrees with confirmed reservations",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/reconcile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin-bookings"],
                "summary": "Run one capacity reconciliation pass",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Store unavailable"}}
            }
        }
    },
    "definitions": {
        "bookings.CreateBookingRequest": {
            "type": "object",
            "required": ["bookingDate", "bookingTime", "guests", "venueId"],
            "properties": {
                "venueId": {"type": "string"},
                "guests": {"type": "integer", "minimum": 1},
                "bookingDate": {"type": "string", "example": "2025-03-01"},
                "bookingTime": {"type": "string", "example": "19:30"},
                "amountPaid": {"type": "number"},
                "currency": {"type": "string", "example": "INR"}
            }
        },
        "cancellation.CancelRequest": {
            "type": "object",
            "required": ["bookingId"],
            "properties": {
                "bookingId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "venues.SubmitRatingRequest": {
            "type": "object",
            "required": ["rating", "venueId"],
            "properties": {
                "venueId": {"type": "string"},
                "rating": {"type": "number", "minimum": 1, "maximum": 5}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Venuely API",
	Description:      "Venue table booking with capacity admission, cancellations and refunds.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
