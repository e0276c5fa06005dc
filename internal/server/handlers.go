package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bnema/addonctl/internal/addons"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addonsRequest struct {
	AuthKey string            `json:"authKey"`
	Email   string            `json:"email"`
	Addons  addons.Collection `json:"addons,omitempty"`
}

type result struct {
	Result any `json:"result"`
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Malformed request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest("Email and password are required")
	}

	authKey, err := s.upstream.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result{Result: map[string]string{"authKey": authKey}})
}

func (s *Server) getAddons(c echo.Context) error {
	req, err := bindAddonsRequest(c)
	if err != nil {
		return err
	}

	collection, err := s.upstream.GetAddons(c.Request().Context(), req.AuthKey, req.Email)
	if err != nil {
		return err
	}
	if collection == nil {
		collection = addons.Collection{}
	}
	return c.JSON(http.StatusOK, result{Result: map[string]any{"addons": collection}})
}

func (s *Server) setAddons(c echo.Context) error {
	req, err := bindAddonsRequest(c)
	if err != nil {
		return err
	}
	if req.Addons == nil {
		return badRequest("addons is required")
	}
	for i := range req.Addons {
		if err := addons.ValidateTransportURL(req.Addons[i].TransportURL); err != nil {
			return err
		}
	}

	if err := s.upstream.SetAddons(c.Request().Context(), req.AuthKey, req.Email, req.Addons); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result{Result: map[string]bool{"success": true}})
}

func (s *Server) manifest(c echo.Context) error {
	transportURL := strings.TrimSpace(c.QueryParam("url"))
	if transportURL == "" {
		return badRequest("url query parameter is required")
	}

	m, err := s.manifests.FetchManifest(c.Request().Context(), transportURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func bindAddonsRequest(c echo.Context) (*addonsRequest, error) {
	var req addonsRequest
	if err := c.Bind(&req); err != nil {
		return nil, badRequest("Malformed request body")
	}
	if strings.TrimSpace(req.AuthKey) == "" {
		return nil, &HTTPError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: "authKey is required"}
	}
	return &req, nil
}
