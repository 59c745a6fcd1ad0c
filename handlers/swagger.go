package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>unified - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document of the public routes.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "unified", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "Field": { "type": "object", "required": ["type", "label"], "properties": {
        "id": {"type": "string"}, "type": {"type": "string", "enum": ["text", "email", "textarea", "mcq", "slider"]},
        "label": {"type": "string"}, "required": {"type": "boolean"},
        "options": {"type": "array", "items": {"type": "object", "properties": {"label": {"type": "string"}, "value": {"type": "string"}}}},
        "config": {"type": "object", "properties": {"min": {"type": "number"}, "max": {"type": "number"}, "step": {"type": "number"}}} } },
      "Draft": { "type": "object", "required": ["name", "fields"], "properties": {
        "name": {"type": "string"}, "description": {"type": "string"}, "theme": {"type": "string", "enum": ["light", "dark"]},
        "fields": {"type": "array", "items": {"$ref": "#/components/schemas/Field"}} } },
      "Error": { "type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "string"}, "index": {"type": "integer"}, "field": {"type": "string"}} }
    }
  },
  "paths": {
    "/api/auth/register": { "post": { "summary": "Create the account of the verified identity", "security": [{"bearer": []}], "responses": { "200": { "description": "existing account" }, "201": { "description": "account created" }, "400": { "description": "invalid profile" } } } },
    "/api/auth/login": { "post": { "summary": "Load the account and issue app tokens", "security": [{"bearer": []}], "responses": { "200": { "description": "account and tokens" }, "404": { "description": "not registered" } } } },
    "/api/auth/refresh": { "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } } },
    "/api/auth/logout": { "post": { "summary": "Logout and invalidate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } } },
    "/api/auth/me": { "get": { "summary": "Current account", "security": [{"bearer": []}], "responses": { "200": { "description": "account" } } } },
    "/api/auth/user": { "delete": { "summary": "Delete the account, its projects and responses", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } } },
    "/api/projects": {
      "get": { "summary": "List own projects", "security": [{"bearer": []}], "responses": { "200": { "description": "projects, oldest first" } } },
      "post": { "summary": "Create a project", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"$ref": "#/components/schemas/Draft"}}}}, "responses": { "201": { "description": "created, with warnings" }, "400": { "description": "invalid form", "content": { "application/json": { "schema": {"$ref": "#/components/schemas/Error"}}} } } }
    },
    "/api/projects/{id}": {
      "get": { "summary": "Load a project (public)", "responses": { "200": { "description": "project" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace name, description, theme and fields", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"$ref": "#/components/schemas/Draft"}}}}, "responses": { "200": { "description": "replaced" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a project and its responses", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/projects/{id}/summary": {
      "get": { "summary": "Last stored summary", "security": [{"bearer": []}], "responses": { "200": { "description": "summary" }, "404": { "description": "none yet" } } },
      "post": { "summary": "Summarize all responses", "security": [{"bearer": []}], "responses": { "200": { "description": "summary" }, "502": { "description": "model failure" }, "503": { "description": "no model configured" } } }
    },
    "/api/projects/{id}/export": { "post": { "summary": "Export responses as CSV", "security": [{"bearer": []}], "responses": { "201": { "description": "presigned download link" }, "503": { "description": "no object storage configured" } } } },
    "/api/feedback": { "post": { "summary": "Submit a response", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"projectId":{"type":"string"},"formAnswers":{"type":"object"}}}}}}, "responses": { "201": { "description": "stored" }, "400": { "description": "invalid answers" }, "404": { "description": "no such project" }, "429": { "description": "rate limited" } } } },
    "/api/feedback/project/{id}": { "get": { "summary": "Responses of a project, newest first", "security": [{"bearer": []}], "responses": { "200": { "description": "responses" } } } },
    "/api/feedback/{id}": { "get": { "summary": "One response", "security": [{"bearer": []}], "responses": { "200": { "description": "response" }, "404": { "description": "not found" } } } },
    "/embed/{id}": { "get": { "summary": "Widget page", "responses": { "200": { "description": "HTML" } } }, "post": { "summary": "Widget step", "responses": { "200": { "description": "HTML" }, "422": { "description": "field rejected" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
