// Package docs registers the OpenAPI document served at /swagger/index.html.
// Regenerate with: swag init -g cmd/main.go
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
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/auth/sign-up": {"post": {"tags": ["auth"], "summary": "Register an operator account", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/sign-in": {"post": {"tags": ["auth"], "summary": "Sign in and obtain a JWT", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/alerts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "List alert rules", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "Create an alert rule", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/alerts/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "Update an alert rule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "Delete an alert rule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/alerts/history": {"get": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "List alert history, newest first", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/api/alerts/check": {"post": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "Evaluate enabled rules against cached entity states", "responses": {"200": {"description": "OK"}}}},
        "/api/alerts/reset": {"post": {"security": [{"BearerAuth": []}], "tags": ["alerts"], "summary": "Forget trigger state so every rule can fire again", "responses": {"200": {"description": "OK"}}}},
        "/api/config/token": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["config"], "summary": "Controller credential status", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["config"], "summary": "Store controller URL and token", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["config"], "summary": "Remove stored controller credentials", "responses": {"200": {"description": "OK"}}}
        },
        "/api/config/ha_url": {"get": {"security": [{"BearerAuth": []}], "tags": ["config"], "summary": "Effective controller URL", "responses": {"200": {"description": "OK"}}}},
        "/api/config/ha_token": {"get": {"security": [{"BearerAuth": []}], "tags": ["config"], "summary": "Effective controller token", "responses": {"200": {"description": "OK"}}}},
        "/api/config/websocket": {"get": {"security": [{"BearerAuth": []}], "tags": ["config"], "summary": "Direct websocket settings for the browser", "responses": {"200": {"description": "OK"}}}},
        "/api/ha/status": {"get": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Live connection status", "responses": {"200": {"description": "OK"}}}},
        "/api/ha/states": {"get": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "All entity states", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}}},
        "/api/ha/states/{entity_id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "One entity state", "parameters": [{"type": "string", "name": "entity_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/ha/refresh": {"post": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Poll the controller once", "responses": {"200": {"description": "OK"}}}},
        "/api/ha/connect": {"post": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Open the live connection", "responses": {"200": {"description": "OK"}}}},
        "/api/ha/disconnect": {"post": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Close the live connection", "responses": {"200": {"description": "OK"}}}},
        "/api/ha/services/{domain}/{service}": {"post": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Call a controller service", "parameters": [{"type": "string", "name": "domain", "in": "path", "required": true}, {"type": "string", "name": "service", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}}},
        "/api/ha/automations": {"get": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Automation entities", "responses": {"200": {"description": "OK"}}}},
        "/api/ha/automations/{entity_id}/{action}": {"post": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Trigger, enable, disable or toggle an automation", "parameters": [{"type": "string", "name": "entity_id", "in": "path", "required": true}, {"type": "string", "name": "action", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/ws": {"get": {"security": [{"BearerAuth": []}], "tags": ["ha"], "summary": "Dashboard push channel", "responses": {"101": {"description": "Switching Protocols"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stable dashboard API",
	Description:      "Home Assistant entity sync and alert rules for the stable dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
