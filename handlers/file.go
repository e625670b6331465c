package handlers

import (
	"errors"
	"mime"
	"net/http"

	"filebox/services"
	"filebox/utils"

	"github.com/gin-gonic/gin"
)

type RenameFileRequest struct {
	NewName string `json:"new_name"`
}

func UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorWithKind(c, http.StatusBadRequest, services.ErrFileTooLarge.Error(), services.KindValidation)
			return
		}
		utils.ErrorWithKind(c, http.StatusBadRequest, "no file part in the request", services.KindValidation)
		return
	}

	src, err := header.Open()
	if err != nil {
		utils.ErrorWithKind(c, http.StatusBadRequest, "failed to read uploaded file", services.KindValidation)
		return
	}
	defer src.Close()

	file, err := getServices().File.Upload(c.Request.Context(), currentUser(c).ID, services.UploadInput{
		Reader:      src,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		FolderPath:  c.PostForm("folder_path"),
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Respond(c, http.StatusCreated, "file uploaded successfully", gin.H{"file": file})
}

func ListFiles(c *gin.Context) {
	out, err := getServices().File.List(c.Request.Context(), currentUser(c).ID, c.Query("folder_path"))
	if respondServiceError(c, err) {
		return
	}
	c.JSON(http.StatusOK, out)
}

func DownloadFile(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	dl, err := getServices().File.Download(c.Request.Context(), currentUser(c).ID, fileID)
	if respondServiceError(c, err) {
		return
	}
	defer dl.Content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.File.OriginalName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, dl.File.FileSize, dl.File.MimeType, dl.Content, map[string]string{
		"Content-Disposition": disposition,
	})
}

func DeleteFile(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	out, err := getServices().File.Delete(c.Request.Context(), currentUser(c).ID, fileID)
	if respondServiceError(c, err) {
		return
	}
	fields := gin.H{}
	if out.Warning != "" {
		fields["warning"] = out.Warning
	}
	utils.Respond(c, http.StatusOK, "file deleted successfully", fields)
}

func RenameFile(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	var req RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithKind(c, http.StatusBadRequest, services.ErrEmptyName.Error(), services.KindValidation)
		return
	}

	file, err := getServices().File.Rename(c.Request.Context(), currentUser(c).ID, fileID, req.NewName)
	if respondServiceError(c, err) {
		return
	}
	utils.Respond(c, http.StatusOK, "file renamed successfully", gin.H{"file": file})
}
