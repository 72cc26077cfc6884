package handler

import (
	"github.com/bizconsult/crm/internal/application/identity"
	domainidentity "github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListUsersQuery filters the user list
type ListUsersQuery struct {
	TeamID *uuid.UUID `form:"team_id"`
}

// UserHandler handles user and team administration
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
	teamService *identity.TeamService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService, teamService *identity.TeamService) *UserHandler {
	return &UserHandler{
		userService: userService,
		teamService: teamService,
	}
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req identity.CreateUserInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// GetByID godoc
// @Summary      Get a user
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// List godoc
// @Summary      List users
// @Description  Team leaders only see the members of their own team
// @Tags         users
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	scope, ok := domainidentity.ScopeFromContext(c.Request.Context())
	if !ok {
		h.HandleError(c, shared.ErrForbidden)
		return
	}
	if scope.Role == domainidentity.RoleTeamLeader {
		if scope.TeamID == nil {
			h.Success(c, []identity.UserDTO{})
			return
		}
		q.TeamID = scope.TeamID
	}

	users, err := h.userService.List(c.Request.Context(), q.TeamID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, users)
}

// Update godoc
// @Summary      Update profile, role, team or password
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateUserInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// UpdateCommissionPolicy godoc
// @Summary      Set a manager's commission rates
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id}/commission [put]
func (h *UserHandler) UpdateCommissionPolicy(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req identity.CommissionPolicyInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateCommissionPolicy(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Activate godoc
// @Summary      Re-enable a user
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Activate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Deactivate godoc
// @Summary      Disable a user and revoke their tokens
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CreateTeam godoc
// @Summary      Create a team
// @Tags         teams
// @Security     BearerAuth
// @Router       /teams [post]
func (h *UserHandler) CreateTeam(c *gin.Context) {
	var req identity.TeamInput
	if !h.bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, team)
}

// ListTeams godoc
// @Summary      List teams
// @Tags         teams
// @Security     BearerAuth
// @Router       /teams [get]
func (h *UserHandler) ListTeams(c *gin.Context) {
	teams, err := h.teamService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, teams)
}

// GetTeam godoc
// @Summary      Get a team
// @Tags         teams
// @Security     BearerAuth
// @Router       /teams/{id} [get]
func (h *UserHandler) GetTeam(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	team, err := h.teamService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, team)
}

// UpdateTeam godoc
// @Summary      Rename a team or change its leader
// @Tags         teams
// @Security     BearerAuth
// @Router       /teams/{id} [put]
func (h *UserHandler) UpdateTeam(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req identity.TeamInput
	if !h.bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, team)
}

// DeleteTeam godoc
// @Summary      Delete an empty team
// @Tags         teams
// @Security     BearerAuth
// @Router       /teams/{id} [delete]
func (h *UserHandler) DeleteTeam(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.teamService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
