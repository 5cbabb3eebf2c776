// internal/handlers/user/user_handler.go
package user

import (
	"net/http"
	"strconv"

	"gym-admin-service/internal/domain/user"
	"gym-admin-service/internal/pkg/response"
	service "gym-admin-service/internal/service/user"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	u, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create user", err)
		return
	}

	response.Success(c, http.StatusCreated, "user created", u)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user ID", err)
		return
	}

	u, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to get user", err)
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", u)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var filters user.UserListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.userService.ListUsers(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list users", err)
		return
	}

	response.Success(c, http.StatusOK, "users retrieved", result)
}
