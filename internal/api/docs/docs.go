// Package docs описание API витрины для swagger
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
        "/shop/{context}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Shop"],
                "summary": "Страница списка витрины",
                "parameters": [
                    {"enum": ["shop", "best-sellers", "new-arrivals", "sale"], "type": "string", "description": "Контекст витрины", "name": "context", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "Номер страницы", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Нижняя граница цены", "name": "minPrice", "in": "query"},
                    {"type": "integer", "description": "Верхняя граница цены", "name": "maxPrice", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/shop/{context}/filters": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Shop"],
                "summary": "Переключить значение фильтра",
                "parameters": [
                    {"type": "string", "description": "Контекст витрины", "name": "context", "in": "path", "required": true},
                    {"description": "Группа и значение", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.toggleRequest"}}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/search/suggest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Shop"],
                "summary": "Подсказки поиска",
                "parameters": [
                    {"type": "string", "description": "Запрос, от двух символов", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}}
                }
            }
        },
        "/products/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Products"],
                "summary": "Товар и выбор варианта",
                "parameters": [
                    {"type": "string", "description": "Slug товара", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/cart": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Cart"],
                "summary": "Добавить товар в корзину",
                "parameters": [
                    {"description": "Товар и количество", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.AddToCartRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "409": {"description": "Только оптовый заказ", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/bulk-inquiries": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Cart"],
                "summary": "Создать оптовую заявку",
                "parameters": [
                    {"description": "Заявка", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.BulkInquiryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.errorResponse": {
            "type": "object",
            "properties": {
                "back": {"type": "string"},
                "code": {"type": "integer"},
                "data": {},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "redirect": {"type": "string"},
                "retry": {"type": "boolean"}
            }
        },
        "handlers.response": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {},
                "success": {"type": "boolean"}
            }
        },
        "handlers.toggleRequest": {
            "type": "object",
            "properties": {
                "checked": {"type": "boolean"},
                "group_id": {"type": "string"},
                "option_id": {"type": "string"}
            }
        },
        "services.AddToCartRequest": {
            "type": "object",
            "properties": {
                "color": {"type": "string"},
                "quantity": {"type": "integer"},
                "size": {"type": "string"},
                "slug": {"type": "string"}
            }
        },
        "services.BulkInquiryRequest": {
            "type": "object",
            "properties": {
                "contact_email": {"type": "string"},
                "contact_name": {"type": "string"},
                "message": {"type": "string"},
                "quantity": {"type": "integer"},
                "sku_variant": {"type": "string"},
                "slug": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo метаданные описания API
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Витрина: списки с фильтрами, страница товара, корзина, избранное и оптовые заявки.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
