package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

// GroupHandler handles group-related requests
type GroupHandler struct {
	groupService ports.GroupService
	logger       *logger.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService ports.GroupService, logger *logger.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// ListGroups godoc
// @Summary List groups
// @Description List the caller's groups ordered by name
// @Tags groups
// @Produce json
// @Success 200 {array} entities.Group
// @Security BearerAuth
// @Router /groups [get]
func (h *GroupHandler) ListGroups(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	groups, err := h.groupService.ListGroups(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, groups)
}

// CreateGroup godoc
// @Summary Create a group
// @Description Group names are unique per user
// @Tags groups
// @Accept json
// @Produce json
// @Param request body ports.CreateGroupRequest true "Group data"
// @Success 201 {object} entities.Group
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /groups [post]
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req ports.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("body", "invalid request format")
	}

	group, err := h.groupService.CreateGroup(c.Request().Context(), user.ID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, group)
}

// DeleteGroup godoc
// @Summary Delete a group
// @Description Delete a group and clear it from the caller's tasks. Tasks are kept.
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} ports.GroupDeletion
// @Failure 404 {object} ports.ErrorResponse
// @Failure 500 {object} ports.ErrorResponse "partial_failure: group deleted, tasks still reference it"
// @Security BearerAuth
// @Router /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	groupID, err := parseID(c, entities.ErrGroupNotFound)
	if err != nil {
		return err
	}

	result, err := h.groupService.DeleteGroup(c.Request().Context(), user.ID, groupID)
	if err != nil {
		return err
	}

	h.logger.LogUserAction(user.ID, "delete_group",
		"group_id", groupID,
		"tasks_unassigned", result.TasksUnassigned,
	)

	return c.JSON(http.StatusOK, result)
}

// UnassignGroupTasks godoc
// @Summary Clear a group from tasks
// @Description Clear the group reference from the caller's tasks. Safe to repeat after a partial_failure delete.
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} ports.GroupDeletion
// @Security BearerAuth
// @Router /groups/{id}/unassign [post]
func (h *GroupHandler) UnassignGroupTasks(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	groupID, err := parseID(c, entities.ErrGroupNotFound)
	if err != nil {
		return err
	}

	n, err := h.groupService.UnassignGroupTasks(c.Request().Context(), user.ID, groupID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.GroupDeletion{GroupID: groupID, TasksUnassigned: n})
}
