// Package docs holds the OpenAPI document served at /swagger/. Keep it in step
// with the swag annotations on the handlers.
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
        "/download": {
            "get": {
                "description": "Fetch the video bytes from a URL returned by POST /download and serve them as an attachment",
                "produces": [
                    "video/mp4",
                    "application/json"
                ],
                "tags": [
                    "download"
                ],
                "summary": "Download a resolved video",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Direct media URL",
                        "name": "url",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "File name for the saved video (default tiktok-video.mp4)",
                        "name": "filename",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Video file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Missing or invalid media URL",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Upstream or internal failure",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "Validate a TikTok page URL and look up its title, thumbnail, author and media URLs",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "download"
                ],
                "summary": "Resolve a TikTok link",
                "parameters": [
                    {
                        "description": "TikTok page URL",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/download.DownloadRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Video resolved",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/download.ResolvedMedia"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid or missing URL",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Upstream or internal failure",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                }
            },
            "options": {
                "tags": [
                    "download"
                ],
                "summary": "CORS preflight",
                "responses": {
                    "200": {
                        "description": "Empty body with CORS headers"
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.Response"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "download.DownloadRequest": {
            "type": "object",
            "required": [
                "url"
            ],
            "properties": {
                "url": {
                    "type": "string"
                }
            }
        },
        "download.ResolvedMedia": {
            "type": "object",
            "properties": {
                "author": {
                    "type": "string"
                },
                "authorUsername": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "downloadUrl": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "musicUrl": {
                    "type": "string"
                },
                "noWatermarkUrl": {
                    "type": "string"
                },
                "thumbnail": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                }
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {
                    "type": "string"
                },
                "success": {
                    "type": "boolean"
                }
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
	Title:            "TikTok Downloader API",
	Description:      "Resolves TikTok links into direct media URLs and relays the video bytes as a download.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
