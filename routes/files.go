package routes

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"quickserve-server/config"
	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

// allowedUploadTypes is the MIME allow-list, decided by sniffing the
// bytes rather than trusting the client's extension or Content-Type.
var allowedUploadTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"video/mp4",
	"video/webm",
	"video/ogg",
}

// FileHandler serves uploads to local disk under /api/files.
type FileHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewFileHandler(db *gorm.DB, cfg *config.Config) *FileHandler {
	return &FileHandler{db: db, cfg: cfg}
}

func RegisterFileRoutes(rg *gin.RouterGroup, h *FileHandler) {
	rg.GET("", h.handleGet)
	rg.POST("", h.handlePost)
	rg.DELETE("", h.handleDelete)
}

func (h *FileHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case "list", "":
		h.list(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *FileHandler) handlePost(c *gin.Context) {
	switch c.Query("action") {
	case "upload", "":
		h.upload(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *FileHandler) handleDelete(c *gin.Context) {
	switch c.Query("action") {
	case "delete", "":
		h.delete(c)
	default:
		utils.Error(c, http.StatusNotFound, "Invalid endpoint")
	}
}

func (h *FileHandler) upload(c *gin.Context) {
	user := middleware.CurrentUser(c)

	purpose := c.PostForm("purpose")
	if purpose == "" {
		purpose = c.Query("purpose")
	}
	if !models.IsValidUploadPurpose(purpose) {
		utils.BadRequest(c, "Invalid upload purpose")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "No file provided")
		return
	}
	if header.Size > h.cfg.Uploads.MaxSizeBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge, "File exceeds the maximum allowed size")
		return
	}

	src, err := header.Open()
	if err != nil {
		utils.ServerError(c, "Failed to read file")
		return
	}
	mtype, err := mimetype.DetectReader(src)
	src.Close()
	if err != nil {
		utils.ServerError(c, "Failed to read file")
		return
	}
	if !mimeAllowed(mtype) {
		utils.BadRequest(c, "File type "+mtype.String()+" is not allowed")
		return
	}

	if err := os.MkdirAll(h.cfg.Uploads.Dir, 0o755); err != nil {
		utils.ServerError(c, "Failed to store file")
		return
	}

	// The stored name is always generated; the client name survives
	// only as display metadata.
	storedName := uuid.New().String() + mtype.Extension()
	destination := filepath.Join(h.cfg.Uploads.Dir, storedName)
	if err := c.SaveUploadedFile(header, destination); err != nil {
		utils.ServerError(c, "Failed to store file")
		return
	}

	var referenceID *uint
	if refParam := c.PostForm("reference_id"); refParam != "" {
		if ref, err := strconv.Atoi(refParam); err == nil && ref > 0 {
			id := uint(ref)
			referenceID = &id
		}
	}

	file := models.UploadedFile{
		UserID:      user.ID,
		FileName:    filepath.Base(header.Filename),
		FilePath:    storedName,
		FileType:    mtype.String(),
		FileSize:    header.Size,
		Purpose:     purpose,
		ReferenceID: referenceID,
		IsPublic:    true,
	}
	if err := h.db.Create(&file).Error; err != nil {
		os.Remove(destination)
		utils.ServerError(c, "Failed to store file")
		return
	}

	utils.Created(c, "File uploaded successfully", gin.H{
		"file": file,
		"url":  "/uploads/" + storedName,
	})
}

func mimeAllowed(mtype *mimetype.MIME) bool {
	for _, allowed := range allowedUploadTypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

func (h *FileHandler) list(c *gin.Context) {
	user := middleware.CurrentUser(c)

	ownerID := user.ID
	if idParam := c.Query("user_id"); idParam != "" && user.IsAdmin() {
		if id, err := strconv.Atoi(idParam); err == nil && id > 0 {
			ownerID = uint(id)
		}
	}

	q := h.db.Where("user_id = ?", ownerID)
	if refParam := c.Query("reference_id"); refParam != "" {
		if ref, err := strconv.Atoi(refParam); err == nil && ref > 0 {
			q = q.Where("reference_id = ?", ref)
		}
	}
	if purpose := c.Query("purpose"); purpose != "" {
		if !models.IsValidUploadPurpose(purpose) {
			utils.BadRequest(c, "Invalid upload purpose")
			return
		}
		q = q.Where("purpose = ?", purpose)
	}

	var files []models.UploadedFile
	if err := q.Order("created_at DESC").Find(&files).Error; err != nil {
		utils.ServerError(c, "Failed to load files")
		return
	}

	utils.Success(c, "", gin.H{"files": files})
}

// delete removes the database row and the file on disk. The path is
// resolved against the uploads root and rejected if it escapes it,
// in case the stored path was tampered with.
func (h *FileHandler) delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Query("id"))
	if err != nil || id < 1 {
		utils.BadRequest(c, "File ID is required")
		return
	}

	var file models.UploadedFile
	if err := h.db.First(&file, id).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "File not found")
		return
	}
	if file.UserID != user.ID && !user.IsAdmin() {
		utils.Error(c, http.StatusForbidden, "You can only delete your own files")
		return
	}

	root, err := filepath.Abs(h.cfg.Uploads.Dir)
	if err != nil {
		utils.ServerError(c, "Failed to delete file")
		return
	}
	target := filepath.Join(root, file.FilePath)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		utils.BadRequest(c, "Invalid file path")
		return
	}

	if err := h.db.Delete(&file).Error; err != nil {
		utils.ServerError(c, "Failed to delete file")
		return
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to remove %s from disk: %v", file.FilePath, err)
	}

	utils.Success(c, "File deleted successfully", nil)
}
