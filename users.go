package main

import (
	"errors"
	"net/http"

	"consumptionanalysis/store"

	"github.com/gin-gonic/gin"
)

// User handler functions

// @Summary List users
// @Description Retrieve a page of users ordered by name
// @Tags users
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} UserList "Page of users"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/users [get]
func listUsers(c *gin.Context) {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dbUsers, total, err := appStore.ListUsers(c.Request.Context(), store.Page{Limit: pageSize, Offset: (page - 1) * pageSize})
	if err != nil {
		respondError(c, err, "Error fetching users", "")
		return
	}

	users := make([]User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, toUser(u))
	}

	c.JSON(http.StatusOK, UserList{Items: users, Total: total, Page: page, PageSize: pageSize})
}

// @Summary Create user
// @Description Create a new user. Name and phone are required; gender defaults to unknown.
// @Tags users
// @Accept json
// @Produce json
// @Param user body UserRequest true "User data"
// @Success 201 {object} User "Created user"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 409 {object} map[string]interface{} "Phone number already registered"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/users [post]
func createUser(c *gin.Context) {
	var request UserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Validate required fields
	if request.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}
	if err := validateName(*request.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := store.User{Name: *request.Name}
	if request.Phone != nil {
		user.Phone = *request.Phone
	}
	if request.Gender != nil {
		user.Gender = *request.Gender
	}
	if request.Email != nil && *request.Email != "" {
		user.Email = request.Email
	}

	created, err := appStore.CreateUser(c.Request.Context(), user)
	if err != nil {
		respondError(c, err, "Error creating user", "User with this phone")
		return
	}

	c.JSON(http.StatusCreated, toUser(created))
}

// @Summary Get user
// @Description Retrieve a single user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} User "User"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/users/{id} [get]
func getUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id", "user")
	if !ok {
		return
	}

	user, err := appStore.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Error fetching user", "User")
		return
	}

	c.JSON(http.StatusOK, toUser(user))
}

// @Summary Update user
// @Description Update the fields present in the body; absent fields keep their value
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body UserRequest true "Fields to change"
// @Success 200 {object} User "Updated user"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 409 {object} map[string]interface{} "Phone number already registered"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/users/{id} [put]
func updateUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id", "user")
	if !ok {
		return
	}

	var request UserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	patch := store.UserPatch{
		Name:   request.Name,
		Gender: request.Gender,
		Phone:  request.Phone,
		Email:  request.Email,
	}

	updated, err := appStore.UpdateUser(c.Request.Context(), userID, patch)
	if err != nil {
		resource := "User"
		if errors.Is(err, store.ErrConflict) {
			resource = "User with this phone"
		}
		respondError(c, err, "Error updating user", resource)
		return
	}

	c.JSON(http.StatusOK, toUser(updated))
}

// @Summary Delete user
// @Description Delete a user together with all of their consumption records
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{} "User deleted successfully"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/users/{id} [delete]
func deleteUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id", "user")
	if !ok {
		return
	}

	if err := appStore.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err, "Error deleting user", "User")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
