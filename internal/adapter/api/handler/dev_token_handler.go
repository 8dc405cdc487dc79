package handler

import (
	"github.com/labstack/echo/v4"

	"tailorchat/internal/domain/entity"
	"tailorchat/internal/infrastructure/devauth"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
)

// DevTokenHandler mints HS256 tokens for local testing. It is only routed in
// development.
type DevTokenHandler struct {
	issuer    *devauth.Issuer
	directory *devauth.Directory
}

func NewDevTokenHandler(issuer *devauth.Issuer, directory *devauth.Directory) *DevTokenHandler {
	return &DevTokenHandler{
		issuer:    issuer,
		directory: directory,
	}
}

// GenerateToken issues a token for :uid and registers the user in the dev directory
// with the optional ?role= and ?name=.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" || uid == entity.SystemSenderID {
		return response.Error(c, errors.BadRequest("A valid user id is required", nil))
	}

	role := c.QueryParam("role")
	switch role {
	case "":
		role = entity.RoleCustomer
	case entity.RoleCustomer, entity.RoleTailor, entity.RoleAdmin:
	default:
		return response.Error(c, errors.BadRequest("role must be one of: customer tailor admin", nil))
	}
	name := c.QueryParam("name")
	if name == "" {
		name = uid
	}

	token, err := h.issuer.Issue(uid, role, name)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to sign token", err))
	}

	if h.directory != nil {
		h.directory.Register(entity.Participant{ID: uid, Name: name, Role: role})
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"user": map[string]string{
			"id":   uid,
			"role": role,
			"name": name,
		},
	})
}
