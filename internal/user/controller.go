package user

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

func init() {
	// report validation failures with json field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

type UserController struct {
	userService UserServiceInterface
}

func NewUserController(userService UserServiceInterface) *UserController {
	return &UserController{
		userService: userService,
	}
}

// GetUsers godoc
// @Summary  Returns the list of all the users
// @Tags     Users
// @Produce  json
// @Success  200 {array} User
// @Router   /users [get]
func (uc *UserController) GetUsers(c *gin.Context) {
	users, err := uc.userService.ListUsers(c.Request.Context())
	if err != nil {
		uc.fail(c, err, "Failed to get users")
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUserByID godoc
// @Summary  Get the user by id
// @Tags     Users
// @Param    id path string true "The user id"
// @Success  200 {object} User
// @Failure  404 {object} map[string]string
// @Router   /user/{id} [get]
func (uc *UserController) GetUserByID(c *gin.Context) {
	user, err := uc.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		uc.fail(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary  User creation
// @Tags     Users
// @Accept   json
// @Param    user body CreateUserRequest true "New user"
// @Success  201 {object} User
// @Failure  500 {object} map[string]string
// @Router   /user [post]
func (uc *UserController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := uc.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		uc.fail(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary  Update the user by the id
// @Tags     Users
// @Accept   json
// @Param    id   path string            true "The user id"
// @Param    user body UpdateUserRequest true "Fields to change"
// @Success  200 {object} User
// @Failure  404 {object} map[string]string
// @Failure  500 {object} map[string]string
// @Router   /user/{id} [put]
func (uc *UserController) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := uc.userService.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		uc.fail(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary  Remove the user by id
// @Tags     Users
// @Param    id path string true "The user id"
// @Success  200 {object} map[string]string
// @Failure  404 {object} map[string]string
// @Router   /user/{id} [delete]
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := uc.userService.DeleteUser(c.Request.Context(), id); err != nil {
		uc.fail(c, err, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
		"id":      id,
	})
}

// SignIn godoc
// @Summary  Signin
// @Tags     Users
// @Accept   json
// @Param    credentials body SignInRequest true "Email and password"
// @Success  200 {object} SignInResponse
// @Failure  401 {object} map[string]string
// @Failure  500 {object} map[string]string
// @Router   /signIn [post]
func (uc *UserController) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := uc.userService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		uc.fail(c, err, "Failed to sign in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken godoc
// @Summary  Rotate the token pair
// @Tags     Users
// @Accept   json
// @Param    token body RefreshRequest true "Refresh token from /signIn"
// @Success  200 {object} auth.TokenPair
// @Failure  400 {object} map[string]string
// @Failure  401 {object} map[string]string
// @Router   /token/refresh [post]
func (uc *UserController) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tokens, err := uc.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// CheckSq godoc
// @Summary      Check an area size
// @Description  Reports the integer side of a square area and the suggested number of trees.
// @Tags         Users
// @Security     BearerAuth
// @Param        sq path string true "Area to check"
// @Success      200 {object} SquareCheck
// @Failure      402 {object} map[string]string
// @Router       /checkSq/{sq} [get]
func (uc *UserController) CheckSq(c *gin.Context) {
	result, err := CheckSquare(c.Param("sq"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// fail maps service errors onto status codes.
func (uc *UserController) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
