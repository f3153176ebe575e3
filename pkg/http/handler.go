package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on a group mounted under the API prefix.
type Handler interface {
	RegisterRoutes(g *echo.Group)
}
