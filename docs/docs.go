// Package docs 接口文档模板，供 gin-swagger 在 /swagger 下提供
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
        "/health": {
            "get": {"tags": ["系统"], "summary": "健康检查", "responses": {"200": {"description": "OK"}}}
        },
        "/exams/{courseId}/start": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["期末考试"],
                "summary": "开始或恢复期末考试",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/exams/{courseId}/restart": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["期末考试"],
                "summary": "重新开始期末考试",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/exams/{courseId}/results": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["期末考试"],
                "summary": "考试成绩历史",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/exams/attempts/{attemptId}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["期末考试"],
                "summary": "恢复考试",
                "parameters": [{"type": "string", "name": "attemptId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/exams/attempts/{attemptId}/answers": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["期末考试"],
                "summary": "提交答案",
                "parameters": [{"type": "string", "name": "attemptId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/exams/attempts/{attemptId}/finalize": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["期末考试"],
                "summary": "交卷",
                "parameters": [{"type": "string", "name": "attemptId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/certificates/results/{resultId}/issue": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["证书"],
                "summary": "签发证书",
                "parameters": [{"type": "integer", "name": "resultId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/certificates/{courseId}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["证书"],
                "summary": "获取证书",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/certificates/{courseId}/download": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["证书"],
                "summary": "下载证书",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "410": {"description": "Gone"}}
            }
        },
        "/certificates/{courseId}/recipient": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["证书"],
                "summary": "绑定律师副本接收人",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attorneys/resolve": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["律师"],
                "summary": "查找律师",
                "parameters": [
                    {"type": "string", "name": "name", "in": "query"},
                    {"type": "string", "name": "email", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/public/certificates/verify/{code}": {
            "get": {
                "tags": ["证书"],
                "summary": "验证证书",
                "parameters": [{"type": "string", "name": "code", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/admin/certificates/{id}/name": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["管理员"],
                "summary": "更正证书姓名",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/certificates/{id}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["管理员"],
                "summary": "撤销证书",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/admin/courses/{courseId}/question-bank": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["管理员"],
                "summary": "导入题库版本",
                "parameters": [{"type": "integer", "name": "courseId", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/admin/attorneys": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["管理员"],
                "summary": "导入律师名录",
                "responses": {"201": {"description": "Created"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "CourtCert 后端 API",
	Description:      "法院指定课程的期末考试与结业证书服务。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
