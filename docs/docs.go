// Package docs registra el documento OpenAPI que sirve /swagger.
//
// Se mantiene a mano: las rutas copian las anotaciones godoc de los handlers
// (resumen, parámetros y códigos), sin definiciones de modelos. Correr
// `swag init -g cmd/api/main.go -o docs` lo reemplaza por la salida completa de swag.
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
        "/adopciones": {
            "post": {
                "description": "Registra una solicitud pendiente y reserva el animal. Un animal adoptado no admite solicitudes.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "adopciones"
                ],
                "summary": "Solicitar adopción",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "description": "Solicitud",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Animal no adoptable",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/adopciones": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Adopciones pendientes",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/adopciones/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Detalle de una adopción",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID de la solicitud",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            },
            "put": {
                "description": "Aprobar marca el animal como adoptado y registra la transición. Rechazar no modifica el animal.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Aprobar o rechazar adopción",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID de la solicitud",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Resolución",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Solicitud ya resuelta",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/animales": {
            "get": {
                "description": "Lista pública, más recientes primero (máx 50). Filtros opcionales por especie, estado, tamaño y sexo.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "animales"
                ],
                "summary": "Catálogo de animales",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Especie",
                        "name": "especie",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "disponible|tratamiento|reservado|adoptado",
                        "name": "estado",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Tamaño",
                        "name": "tamano",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Sexo",
                        "name": "sexo",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/animales/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "animales"
                ],
                "summary": "Perfil de un animal",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "ID del animal",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/veterinario/animales": {
            "get": {
                "description": "Animales por prioridad de atención (tratamiento, disponible, reservado, resto), luego más recientes. Máx 50. Incluye el veterinario asignado o \"Sin asignar\".",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Panel del veterinario",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Filtrar por estado",
                        "name": "estado",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/veterinario/atender": {
            "post": {
                "description": "Registra una atención en el historial médico y, si viene nuevo_estado, cambia el estado del animal en la misma transacción.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Atender animal",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "description": "Atención",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Transición no permitida",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/veterinario/estado/{animalId}": {
            "put": {
                "description": "Cambio directo de estado por un veterinario. Solo disponible, tratamiento o reservado.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Cambiar estado de un animal",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID del animal",
                        "name": "animalId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Nuevo estado y razón",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Estado no permitido",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/animales": {
            "post": {
                "description": "Alta de un animal (estado tratamiento, sin veterinario). Acepta JSON o multipart/form-data con hasta 5 fotos de 5MB en el campo \"fotos\".",
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Ingresar animal",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "description": "Datos del animal (JSON)",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/animales/{id}": {
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Eliminar animal",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID del animal",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/veterinario/historial/{animalId}": {
            "get": {
                "description": "Atenciones veterinarias del animal, más recientes primero, con nombre y email del veterinario. Requiere rol veterinario.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Historial médico de un animal",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol (usuario|veterinario|admin)",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID del animal",
                        "name": "animalId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Máximo de atenciones (default 20, máx 100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/animales/{id}/transiciones": {
            "get": {
                "description": "Registros de cambio de estado (historial_estados), más recientes primero. Requiere rol veterinario.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Línea de estados de un animal",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID del animal",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "Máximo de registros (default 50, máx 100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/reportes": {
            "post": {
                "description": "Acepta JSON o multipart/form-data con hasta 5 fotos en el campo \"fotos\".",
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reportes"
                ],
                "summary": "Crear reporte",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "description": "Reporte (JSON)",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/reportes": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Reportes (admin)",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/reportes/{id}": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Revisar reporte",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID del reporte",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Estado y notas",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/estadisticas": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "estadisticas"
                ],
                "summary": "Estadísticas generales",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/veterinario/dashboard-stats": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Panel del veterinario",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/registro": {
            "post": {
                "description": "Crea una cuenta con rol usuario.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Registro de usuario",
                "parameters": [
                    {
                        "description": "Datos de la cuenta",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Datos inválidos o email ya registrado",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/login": {
            "post": {
                "description": "Devuelve el token de sesión en el body y en la cookie refugio_session.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Iniciar sesión",
                "parameters": [
                    {
                        "description": "Credenciales",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Credenciales incorrectas",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/logout": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Cerrar sesión",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/user": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Usuario actual",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/check": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "¿Es administrador?",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/usuarios": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Listar usuarios",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/solicitar-veterinario": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "veterinario"
                ],
                "summary": "Solicitar ser veterinario",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "description": "Experiencia y especialidad",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/solicitudes-veterinario": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Solicitudes de veterinario pendientes",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/solicitudes-veterinario/{id}": {
            "put": {
                "description": "Aprobar cambia el tipo del usuario a veterinario.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Aprobar o rechazar solicitud de veterinario",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol",
                        "name": "X-Debug-Role",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "description": "ID de la solicitud",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Resolución",
                        "name": "payload",
                        "in": "body",
                        "schema": {
                            "type": "object"
                        },
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo describe la API; main puede ajustar Host o BasePath.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Refugio de animales API",
	Description:      "Backend del refugio: catálogo, atención veterinaria, adopciones y reportes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
