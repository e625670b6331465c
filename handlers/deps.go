package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"filebox/logger"
	"filebox/models"
	"filebox/services"
	"filebox/utils"

	"github.com/gin-gonic/gin"
)

var appServices *services.Container

func SetServices(container *services.Container) {
	appServices = container
}

func getServices() *services.Container {
	if appServices == nil {
		panic("services container is not initialized")
	}
	return appServices
}

func respondServiceError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr)
		}
		utils.ErrorWithKind(c, appErr.HTTPCode, appErr.Message, appErr.Kind)
		return true
	}
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	utils.ErrorWithKind(c, http.StatusInternalServerError, "internal error", services.KindInternal)
	return true
}

func currentUser(c *gin.Context) models.User {
	if v, ok := c.Get("user"); ok {
		if user, ok := v.(models.User); ok {
			return user
		}
	}
	return models.User{ID: c.GetUint("user_id")}
}

// parseFileID treats an id that is not a positive integer like any unknown id.
func parseFileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorWithKind(c, http.StatusNotFound, services.ErrFileNotFound.Error(), services.KindNotFound)
		return 0, false
	}
	return uint(id), true
}
