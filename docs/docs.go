// Package docs registers the OpenAPI document for the user API with swag so
// gin-swagger can serve it.
//
//	@title			User API
//	@version		1.0.0
//	@description	The user managing API: CRUD on user records, sign-in, and the check square utility.
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token from /signIn. Format: 'Bearer <token>'
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "tags": [
        {"name": "Users", "description": "The user managing API"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "Returns the list of all the users",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "The list of the users",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/Users"}}
                    }
                }
            }
        },
        "/user": {
            "post": {
                "tags": ["Users"],
                "summary": "User creation",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/UserInput"}}
                ],
                "responses": {
                    "201": {"description": "The user created successfully", "schema": {"$ref": "#/definitions/Users"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Some server error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/user/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get the user by id",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true, "description": "The user id"}
                ],
                "responses": {
                    "200": {"description": "The user description by id", "schema": {"$ref": "#/definitions/Users"}},
                    "404": {"description": "The user was not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update the user by the id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true, "description": "The user id"},
                    {"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/UserInput"}}
                ],
                "responses": {
                    "200": {"description": "The user was updated", "schema": {"$ref": "#/definitions/Users"}},
                    "404": {"description": "The user was not found", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Some error happened", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Remove the user by id",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true, "description": "The user id"}
                ],
                "responses": {
                    "200": {"description": "The user was deleted"},
                    "404": {"description": "The user was not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/signIn": {
            "post": {
                "tags": ["Users"],
                "summary": "Signin",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/Signin"}}
                ],
                "responses": {
                    "200": {"description": "The user logged in successfully", "schema": {"$ref": "#/definitions/SignInResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Error"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Some server error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/checkSq/{sq}": {
            "get": {
                "tags": ["Users"],
                "description": "Checks an area size and suggests a number of trees.",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "sq", "type": "string", "required": true, "description": "To check sq"}
                ],
                "responses": {
                    "200": {"description": "To check sq", "schema": {"$ref": "#/definitions/SquareCheck"}},
                    "400": {"description": "sq is not a non-negative integer", "schema": {"$ref": "#/definitions/Error"}},
                    "402": {"description": "User not logged in", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/token/refresh": {
            "post": {
                "tags": ["Users"],
                "summary": "Rotate the token pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "token", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/TokenPair"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Users": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "description": "The auto-generated id of the user"},
                "username": {"type": "string", "description": "The user's name"},
                "email": {"type": "string", "description": "The user's email"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            },
            "example": {"id": "7b0c9d3e-2f4a-4b7e-9b1d-1c2d3e4f5a6b", "username": "some name", "email": "someone@example.com"}
        },
        "UserInput": {
            "type": "object",
            "required": ["username", "email", "password"],
            "properties": {
                "username": {"type": "string", "description": "The user's name"},
                "email": {"type": "string", "format": "email", "description": "The user's email"},
                "password": {"type": "string", "format": "password", "description": "The user's password"}
            }
        },
        "Signin": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "format": "email", "description": "The user's email"},
                "password": {"type": "string", "format": "password", "description": "The user's password"}
            },
            "example": {"email": "someone@example.com", "password": "some password"}
        },
        "RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "TokenPair": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_in": {"type": "integer", "description": "Access token lifetime in seconds"}
            }
        },
        "SignInResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/Users"},
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_in": {"type": "integer"}
            }
        },
        "SquareCheck": {
            "type": "object",
            "properties": {
                "sq": {"type": "integer"},
                "root": {"type": "integer"},
                "perfect_square": {"type": "boolean"},
                "suggested_trees": {"type": "integer"}
            }
        },
        "Error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "User API",
	Description:      "The user managing API: CRUD on user records, sign-in, and the check square utility.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
