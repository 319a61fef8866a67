package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/middleware"
	echomw "github.com/dcook-net/json-everything/middleware/echo"
)

// User represents a user in our system.
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Age    int    `json:"age"`
	Active bool   `json:"active"`
}

// createUserSchemaJSON validates POST bodies. The id member is not accepted:
// the server assigns it.
const createUserSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "email"],
	"additionalProperties": false,
	"properties": {
		"name":   {"type": "string", "minLength": 1},
		"email":  {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+$"},
		"age":    {"type": "integer", "minimum": 0, "maximum": 150},
		"active": {"type": "boolean"}
	}
}`

// patchUserSchemaJSON validates PATCH bodies: any subset of the updatable
// members, but at least one of them.
const patchUserSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": false,
	"anyOf": [
		{"required": ["name"]},
		{"required": ["email"]},
		{"required": ["age"]},
		{"required": ["active"]}
	],
	"properties": {
		"name":   {"type": "string", "minLength": 1},
		"email":  {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+$"},
		"age":    {"type": "integer", "minimum": 0, "maximum": 150},
		"active": {"type": "boolean"}
	}
}`

// UserStore is a simple in-memory store.
type UserStore struct {
	mu     sync.RWMutex
	users  map[int]User
	nextID int
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:  make(map[int]User),
		nextID: 1,
	}
}

func (s *UserStore) Create(user User) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = user

	return user
}

func (s *UserStore) GetAll() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users
}

func (s *UserStore) GetByID(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	return user, exists
}

func (s *UserStore) Update(id int, user User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return false
	}

	user.ID = id
	s.users[id] = user
	return true
}

func (s *UserStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return false
	}

	delete(s.users, id)
	return true
}

// Server holds our application state.
type Server struct {
	store        *UserStore
	createSchema *jsonschema.Schema
	patchSchema  *jsonschema.Schema
}

func NewServer() *Server {
	return &Server{
		store:        NewUserStore(),
		createSchema: jsonschema.MustCompile([]byte(createUserSchemaJSON)),
		patchSchema:  jsonschema.MustCompile([]byte(patchUserSchemaJSON)),
	}
}

func (s *Server) handleGetUsers(c echo.Context) error {
	users := s.store.GetAll()
	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"count": len(users),
	})
}

func (s *Server) handleGetUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, exists := s.store.GetByID(id)
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleCreateUser(c echo.Context) error {
	// The middleware already validated the body against createUserSchemaJSON.
	v, ok := echomw.GetValidated(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "validated body missing")
	}
	doc, _ := v.Document.(map[string]any)

	user := applyUserDoc(doc, User{Age: 18, Active: true})
	created := s.store.Create(user)
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handlePatchUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	existing, exists := s.store.GetByID(id)
	if !exists {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	v, ok := echomw.GetValidated(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "validated body missing")
	}
	doc, _ := v.Document.(map[string]any)

	// Presence is member existence in the request document: only members the
	// client actually sent are applied.
	updated := applyUserDoc(doc, existing)
	s.store.Update(id, updated)

	return c.JSON(http.StatusOK, echo.Map{
		"user":           updated,
		"updated_fields": updatedFields(doc),
	})
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if !s.store.Delete(id) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSchema(c echo.Context) error {
	// Schema marshals to its canonical JSON form.
	return c.JSON(http.StatusOK, s.createSchema)
}

// applyUserDoc overlays the members present in doc onto base. Numbers arrive
// as json.Number because the middleware decodes bodies in number-preserving
// mode.
func applyUserDoc(doc map[string]any, base User) User {
	user := base
	if v, ok := doc["name"].(string); ok {
		user.Name = v
	}
	if v, ok := doc["email"].(string); ok {
		user.Email = v
	}
	if v, ok := doc["age"].(json.Number); ok {
		if n, err := v.Int64(); err == nil {
			user.Age = int(n)
		}
	}
	if v, ok := doc["active"].(bool); ok {
		user.Active = v
	}
	return user
}

func updatedFields(doc map[string]any) []string {
	updated := make([]string, 0, 4)
	for _, field := range []string{"name", "email", "age", "active"} {
		if _, ok := doc[field]; ok {
			updated = append(updated, field)
		}
	}
	return updated
}

func main() {
	server := NewServer()

	// Add some initial data
	server.store.Create(User{Name: "Taro", Email: "taro@example.com", Age: 30, Active: true})
	server.store.Create(User{Name: "Hanako", Email: "hanako@example.com", Age: 25, Active: true})

	e := echo.New()
	e.HideBanner = true

	validateCreate := echomw.ValidateJSON(server.createSchema, middleware.DefaultEvaluateOpt())
	validatePatch := echomw.ValidateJSON(server.patchSchema, middleware.DefaultEvaluateOpt())

	e.GET("/users", server.handleGetUsers)
	e.POST("/users", server.handleCreateUser, validateCreate)
	e.GET("/users/:id", server.handleGetUser)
	e.PATCH("/users/:id", server.handlePatchUser, validatePatch)
	e.DELETE("/users/:id", server.handleDeleteUser)
	e.GET("/schema", server.handleSchema)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "User API Sample",
			"endpoints": map[string]string{
				"GET /users":         "Get all users",
				"POST /users":        "Create a new user",
				"GET /users/{id}":    "Get user by ID",
				"PATCH /users/{id}":  "Partially update user",
				"DELETE /users/{id}": "Delete user",
				"GET /schema":        "Get the user schema",
				"GET /health":        "Health check",
			},
			"examples": echo.Map{
				"create_user": echo.Map{
					"method": "POST",
					"url":    "/users",
					"body": echo.Map{
						"name":   "Taro",
						"email":  "taro@example.com",
						"age":    30,
						"active": true,
					},
				},
				"partial_update": echo.Map{
					"method": "PATCH",
					"url":    "/users/1",
					"body":   echo.Map{"name": "Jiro"},
					"note":   "Only updates the 'name' field, other fields remain unchanged",
				},
			},
		})
	})

	log.Println("user API server starting on :8080")
	if err := e.Start(":8080"); err != nil {
		log.Fatal("server failed to start:", err)
	}
}
