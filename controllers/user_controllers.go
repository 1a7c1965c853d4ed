package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{Users: users}
}

// Register user baru. Self-registered accounts always get the user role.
func (uc *UserController) Register(c *gin.Context) {
	type request struct {
		Username  string `json:"username" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondServiceError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err))
		return
	}

	user, err := uc.Users.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.RoleUser,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondServiceError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err))
		return
	}

	token, user, err := uc.Users.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Username, user.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(user.Role),
	})
}

func (uc *UserController) Logout(c *gin.Context) {
	if err := uc.Users.Logout(utils.BearerToken(c.GetHeader("Authorization"))); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := uc.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"role":       user.Role,
	})
}
