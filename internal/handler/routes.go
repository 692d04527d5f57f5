package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandlers is the set of endpoint implementations the route table
// dispatches to. *user.UserController satisfies it.
type UserHandlers interface {
	GetUsers(c *gin.Context)
	GetUserByID(c *gin.Context)
	CreateUser(c *gin.Context)
	UpdateUser(c *gin.Context)
	DeleteUser(c *gin.Context)
	SignIn(c *gin.Context)
	CheckSq(c *gin.Context)
	RefreshToken(c *gin.Context)
}

// Route binds one method and path pattern to a named handler.
type Route struct {
	Method     string
	Path       string
	Name       string
	Handler    gin.HandlerFunc
	Middleware []gin.HandlerFunc
}

// Guards are the middlewares some routes run before their handler. Nil
// entries are skipped.
type Guards struct {
	// SignedIn rejects requests without a valid access token.
	SignedIn gin.HandlerFunc
	// SignInLimit throttles credential checks.
	SignInLimit gin.HandlerFunc
	// UserLimit throttles per signed-in user; it runs after SignedIn.
	UserLimit gin.HandlerFunc
}

// Routes builds the route table. Call it once at startup; every call returns
// a fresh slice, so callers cannot alter another caller's table.
func Routes(h UserHandlers, g Guards) []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/users", Name: "getUsers", Handler: h.GetUsers},
		{Method: http.MethodGet, Path: "/user/:id", Name: "getUserById", Handler: h.GetUserByID},
		{Method: http.MethodPost, Path: "/user", Name: "createUser", Handler: h.CreateUser},
		{Method: http.MethodPut, Path: "/user/:id", Name: "updateUser", Handler: h.UpdateUser},
		{Method: http.MethodDelete, Path: "/user/:id", Name: "deleteUser", Handler: h.DeleteUser},
		{Method: http.MethodPost, Path: "/signIn", Name: "signIn", Handler: h.SignIn, Middleware: chain(g.SignInLimit)},
		{Method: http.MethodGet, Path: "/checkSq/:sq", Name: "checkSq", Handler: h.CheckSq, Middleware: chain(g.SignedIn, g.UserLimit)},
		{Method: http.MethodPost, Path: "/token/refresh", Name: "refreshToken", Handler: h.RefreshToken, Middleware: chain(g.SignInLimit)},
	}
}

// Register mounts routes on r in table order.
func Register(r gin.IRoutes, routes []Route) {
	for _, route := range routes {
		handlers := make([]gin.HandlerFunc, 0, len(route.Middleware)+1)
		handlers = append(handlers, route.Middleware...)
		handlers = append(handlers, route.Handler)
		r.Handle(route.Method, route.Path, handlers...)
	}
}

func chain(mw ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
