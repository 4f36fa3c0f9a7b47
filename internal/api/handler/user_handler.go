package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/crmforge/accounts-api/internal/api/metrics"
	"github.com/crmforge/accounts-api/internal/api/middleware"
	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
)

// UserHandler handles the authenticated user and customer endpoints.
type UserHandler struct {
	userService       ports.UserService
	assignmentService ports.AssignmentService
}

func NewUserHandler(userService ports.UserService, assignmentService ports.AssignmentService) *UserHandler {
	return &UserHandler{userService: userService, assignmentService: assignmentService}
}

type createUserRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	Role              string `json:"role" validate:"required,oneof=admin manager customer"`
	Phone             string `json:"phone,omitempty"`
	ShippingAddress   string `json:"shipping_address,omitempty"`
	AssignedManagerID string `json:"assigned_manager_id,omitempty"`
}

type updateUserRequest struct {
	Role              *string `json:"role,omitempty" validate:"omitempty,oneof=admin manager customer"`
	IsVerified        *bool   `json:"is_verified,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	ShippingAddress   *string `json:"shipping_address,omitempty"`
	AssignedManagerID *string `json:"assigned_manager_id,omitempty"`
}

// Me returns the caller's own record.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// List returns the users visible to the caller. Admins see everyone;
// managers see themselves plus their assigned customers; customers see
// only themselves.
//
// @Summary      List visible users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users/ [get]
func (h *UserHandler) List(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	users, err := h.userService.List(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// ManagedCustomers returns the customers currently assigned to the calling
// manager.
//
// @Summary      List managed customers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /users/managed-customers/ [get]
func (h *UserHandler) ManagedCustomers(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	customers, err := h.assignmentService.CustomersFor(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// Activity returns recent audit entries. Admin only.
//
// @Summary      List recent activity
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 100)"
// @Success      200    {array}   domain.AuditEntry
// @Failure      403    {object}  map[string]string
// @Router       /users/activity/ [get]
func (h *UserHandler) Activity(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	entries, err := h.userService.Activity(c.Request().Context(), user, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// Get returns a single user: admins may fetch anyone, managers their
// assigned customers, everyone their own record.
//
// @Summary      Get user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	target, err := h.userService.Get(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, target)
}

// Create adds a user. The new user's role is constrained by the caller's:
// managers may only create customers; only admins may create admins or
// managers.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /users/ [post]
func (h *UserHandler) Create(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	created, err := h.userService.Create(c.Request().Context(), user, ports.CreateUserInput{
		Email:             req.Email,
		Password:          req.Password,
		Role:              role,
		Phone:             req.Phone,
		ShippingAddress:   req.ShippingAddress,
		AssignedManagerID: req.AssignedManagerID,
	})
	if err != nil {
		return err
	}

	metrics.UsersCreatedTotal.WithLabelValues(string(created.Role)).Inc()

	return c.JSON(http.StatusCreated, created)
}

// Update applies partial changes to a user. A present assigned_manager_id
// takes the reassignment path, which is admin-exclusive regardless of
// current ownership.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Field updates"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id := c.Param("id")

	if req.AssignedManagerID != nil {
		updated, err := h.assignmentService.Reassign(c.Request().Context(), user, id, *req.AssignedManagerID)
		if err != nil {
			return err
		}
		metrics.ReassignmentsTotal.Inc()
		return c.JSON(http.StatusOK, updated)
	}

	in := ports.UpdateUserInput{
		IsVerified:      req.IsVerified,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
	}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			return err
		}
		in.Role = &role
	}

	updated, err := h.userService.Update(c.Request().Context(), user, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete deactivates a user. Records are flagged inactive, never removed,
// because audit and assignment entries keep referencing them.
//
// @Summary      Deactivate user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      204  "deactivated"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	user, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	if err := h.userService.Deactivate(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
