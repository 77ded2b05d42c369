package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListUsers tests the GET /api/users endpoint
func TestListUsers(t *testing.T) {
	// Clean data before test
	if err := cleanupTestData(); err != nil {
		t.Fatalf("Failed to cleanup test data: %v", err)
	}

	t.Run("should return empty list when no users exist", func(t *testing.T) {
		resp := makeRequest("GET", "/api/users", nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var list UserList
		assertNoError(t, parseJSONResponse(resp, &list))

		assert.Empty(t, list.Items)
		assert.Equal(t, 0, list.Total)
		assert.Equal(t, 1, list.Page)
		assert.Equal(t, defaultPageSize, list.PageSize)
	})

	t.Run("should return users ordered by name", func(t *testing.T) {
		_, err := createTestUser("Zhang Wei", "13800000001")
		require.NoError(t, err)
		_, err = createTestUser("Li Na", "13800000002")
		require.NoError(t, err)

		resp := makeRequest("GET", "/api/users", nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var list UserList
		assertNoError(t, parseJSONResponse(resp, &list))

		require.Len(t, list.Items, 2)
		assert.Equal(t, "Li Na", list.Items[0].Name)
		assert.Equal(t, "Zhang Wei", list.Items[1].Name)
		assert.Equal(t, 2, list.Total)
	})

	t.Run("should page through users", func(t *testing.T) {
		resp := makeRequest("GET", "/api/users?page=2&page_size=1", nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var list UserList
		assertNoError(t, parseJSONResponse(resp, &list))

		require.Len(t, list.Items, 1)
		assert.Equal(t, "Zhang Wei", list.Items[0].Name)
		assert.Equal(t, 2, list.Total)
	})

	t.Run("should reject invalid paging", func(t *testing.T) {
		for _, query := range []string{"page=0", "page=abc", "page_size=0", "page_size=101"} {
			resp := makeRequest("GET", "/api/users?"+query, nil)
			assertStatusCode(t, http.StatusBadRequest, resp.Code)
		}
	})
}

// TestCreateUser tests the POST /api/users endpoint
func TestCreateUser(t *testing.T) {
	// Clean data before test
	if err := cleanupTestData(); err != nil {
		t.Fatalf("Failed to cleanup test data: %v", err)
	}

	t.Run("should create user with valid data", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name":   "Alice",
			"phone":  "13900000000",
			"gender": "female",
			"email":  "alice@example.com",
		}))

		assertStatusCode(t, http.StatusCreated, resp.Code)

		var user User
		assertNoError(t, parseJSONResponse(resp, &user))

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "female", user.Gender)
		assert.Equal(t, "13900000000", user.Phone)
		require.NotNil(t, user.Email)
		assert.Equal(t, "alice@example.com", *user.Email)
	})

	t.Run("should default gender to unknown", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name":  "Bob",
			"phone": "13900000001",
		}))

		assertStatusCode(t, http.StatusCreated, resp.Code)

		var user User
		assertNoError(t, parseJSONResponse(resp, &user))
		assert.Equal(t, "unknown", user.Gender)
		assert.Nil(t, user.Email)
	})

	t.Run("should fail with empty name", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name":  "   ",
			"phone": "13900000002",
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
		assertErrorResponse(t, resp)
	})

	t.Run("should fail with missing name", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"phone": "13900000003",
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should fail with missing phone", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name": "Carol",
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, assertErrorResponse(t, resp), "phone")
	})

	t.Run("should fail with unknown gender", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name":   "Dan",
			"phone":  "13900000004",
			"gender": "robot",
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, assertErrorResponse(t, resp), "gender")
	})

	t.Run("should return 409 for duplicate phone", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name":  "Another Alice",
			"phone": "13900000000",
		}))

		assertStatusCode(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "User with this phone already exists", assertErrorResponse(t, resp))
	})

	t.Run("should fail with malformed JSON", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, "not an object"))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Invalid request body", assertErrorResponse(t, resp))
	})
}

// TestGetUser tests the GET /api/users/:id endpoint
func TestGetUser(t *testing.T) {
	// Clean data before test
	if err := cleanupTestData(); err != nil {
		t.Fatalf("Failed to cleanup test data: %v", err)
	}

	userID, err := createTestUser("Alice", "13900000000")
	require.NoError(t, err)

	t.Run("should return created user", func(t *testing.T) {
		resp := makeRequest("GET", "/api/users/"+userID, nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var user User
		assertNoError(t, parseJSONResponse(resp, &user))
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("should return 404 for unknown user", func(t *testing.T) {
		resp := makeRequest("GET", "/api/users/"+uuid.New().String(), nil)

		assertStatusCode(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "User not found", assertErrorResponse(t, resp))
	})

	t.Run("should return 400 for malformed ID", func(t *testing.T) {
		resp := makeRequest("GET", "/api/users/not-a-uuid", nil)

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Invalid user ID", assertErrorResponse(t, resp))
	})
}

// TestUpdateUser tests the PUT /api/users/:id endpoint
func TestUpdateUser(t *testing.T) {
	// Clean data before test
	if err := cleanupTestData(); err != nil {
		t.Fatalf("Failed to cleanup test data: %v", err)
	}

	userID, err := createTestUser("Alice", "13900000000")
	require.NoError(t, err)
	_, err = createTestUser("Bob", "13900000001")
	require.NoError(t, err)

	t.Run("should update only the fields present", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/users/"+userID, jsonBody(t, map[string]interface{}{
			"name": "Alice Wang",
		}))

		assertStatusCode(t, http.StatusOK, resp.Code)

		var user User
		assertNoError(t, parseJSONResponse(resp, &user))
		assert.Equal(t, "Alice Wang", user.Name)
		assert.Equal(t, "13900000000", user.Phone)
	})

	t.Run("should clear email with empty string", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/users/"+userID, jsonBody(t, map[string]interface{}{
			"email": "alice@example.com",
		}))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("PUT", "/api/users/"+userID, jsonBody(t, map[string]interface{}{
			"email": "",
		}))
		assertStatusCode(t, http.StatusOK, resp.Code)

		var user User
		assertNoError(t, parseJSONResponse(resp, &user))
		assert.Nil(t, user.Email)
	})

	t.Run("should return 409 when taking another user's phone", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/users/"+userID, jsonBody(t, map[string]interface{}{
			"phone": "13900000001",
		}))

		assertStatusCode(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "User with this phone already exists", assertErrorResponse(t, resp))
	})

	t.Run("should reject blank name", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/users/"+userID, jsonBody(t, map[string]interface{}{
			"name": "",
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should return 404 for unknown user", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/users/"+uuid.New().String(), jsonBody(t, map[string]interface{}{
			"name": "Nobody",
		}))

		assertStatusCode(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "User not found", assertErrorResponse(t, resp))
	})
}

// TestDeleteUser tests the DELETE /api/users/:id endpoint
func TestDeleteUser(t *testing.T) {
	// Clean data before test
	if err := cleanupTestData(); err != nil {
		t.Fatalf("Failed to cleanup test data: %v", err)
	}

	userID, err := createTestUser("Alice", "13900000000")
	require.NoError(t, err)
	recordID, err := createTestConsumption(userID, "12.50", "餐饮", time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	t.Run("should delete user and their records", func(t *testing.T) {
		resp := makeRequest("DELETE", "/api/users/"+userID, nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("GET", "/api/users/"+userID, nil)
		assertStatusCode(t, http.StatusNotFound, resp.Code)

		resp = makeRequest("GET", "/api/consumptions/"+recordID, nil)
		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should allow the phone to be reused", func(t *testing.T) {
		resp := makeRequest("POST", "/api/users", jsonBody(t, map[string]interface{}{
			"name":  "Alice Again",
			"phone": "13900000000",
		}))

		assertStatusCode(t, http.StatusCreated, resp.Code)
	})

	t.Run("should return 404 when deleting twice", func(t *testing.T) {
		resp := makeRequest("DELETE", "/api/users/"+userID, nil)

		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})
}
