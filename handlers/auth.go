package handlers

import (
	"net/http"

	"filebox/services"
	"filebox/utils"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithKind(c, http.StatusBadRequest, "invalid request body", services.KindValidation)
		return
	}

	user, err := getServices().Auth.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Respond(c, http.StatusCreated, "user created successfully", gin.H{"user": user})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithKind(c, http.StatusBadRequest, "invalid request body", services.KindValidation)
		return
	}

	out, err := getServices().Auth.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if respondServiceError(c, err) {
		return
	}
	c.JSON(http.StatusOK, out)
}

func Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		utils.ErrorWithKind(c, http.StatusBadRequest, "refresh_token is required", services.KindValidation)
		return
	}

	out, err := getServices().Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if respondServiceError(c, err) {
		return
	}
	c.JSON(http.StatusOK, out)
}

func Verify(c *gin.Context) {
	utils.Respond(c, http.StatusOK, "token is valid", gin.H{"user": currentUser(c)})
}

func Logout(c *gin.Context) {
	if respondServiceError(c, getServices().Auth.Logout(c.Request.Context(), currentUser(c).ID)) {
		return
	}
	utils.Respond(c, http.StatusOK, "logged out successfully", nil)
}
