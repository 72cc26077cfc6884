package handler

import (
	apptodo "github.com/bizconsult/crm/internal/application/todo"
	"github.com/gin-gonic/gin"
)

// TodoHandler handles the personal task list
type TodoHandler struct {
	BaseHandler
	todoService *apptodo.TodoService
}

// NewTodoHandler creates a new TodoHandler
func NewTodoHandler(todoService *apptodo.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req apptodo.TodoInput
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.todoService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, item)
}

// List godoc
// @Summary      List todos
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	var q apptodo.ListTodosInput
	if !h.bindQuery(c, &q) {
		return
	}

	items, err := h.todoService.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// GetByID godoc
// @Summary      Get a todo
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.todoService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Update godoc
// @Summary      Replace a todo
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req apptodo.TodoInput
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.todoService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Complete godoc
// @Summary      Mark a todo done
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos/{id}/complete [post]
func (h *TodoHandler) Complete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.todoService.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Reopen godoc
// @Summary      Mark a todo open again
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos/{id}/reopen [post]
func (h *TodoHandler) Reopen(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.todoService.Reopen(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Security     BearerAuth
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.todoService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
