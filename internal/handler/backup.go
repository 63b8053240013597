package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// BackupHandler creates and serves encrypted database snapshots.
type BackupHandler struct {
	DB         *gorm.DB
	EncryptKey string
	BackupDir  string
	Logger     *logrus.Logger
}

func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string, logger *logrus.Logger) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
		Logger:     logger,
	}
}

// Snapshot copies the live database with VACUUM INTO, encrypts the copy and
// records it. The plaintext copy never outlives the call.
func Snapshot(db *gorm.DB, dir, key string, userID uint) (*models.Backup, error) {
	if key == "" {
		return nil, errors.New("encryption key not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	id := uuid.New().String()
	tmp := filepath.Join(dir, id+".tmp")
	defer os.Remove(tmp)

	if err := db.Exec("VACUUM INTO ?", tmp).Error; err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	raw, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	enc, err := util.EncryptAES(key, raw)
	if err != nil {
		return nil, fmt.Errorf("encrypt snapshot: %w", err)
	}

	fileName := fmt.Sprintf("backup-%s-%s.bin", time.Now().Format("20060102-150405"), id[:8])
	filePath := filepath.Join(dir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	backup := models.Backup{
		UserID:   userID,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
	}
	if err := db.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("save backup row: %w", err)
	}
	return &backup, nil
}

func backupJSON(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"user_id":    b.UserID,
		"file_name":  b.FileName,
		"size":       b.Size,
		"created_at": b.CreatedAt,
	}
}

func (h *BackupHandler) CreateBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	backup, err := Snapshot(h.DB, h.BackupDir, h.EncryptKey, user.ID)
	if err != nil {
		config.LogError(h.Logger, "handler", "CreateBackup", "snapshot", user.ID, err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao criar backup")
		return
	}

	util.Success(c, util.Response{"backup": backupJSON(backup)})
}

func (h *BackupHandler) ListBackups(c *gin.Context) {
	var list []models.Backup
	if err := h.DB.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao listar backups")
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupJSON(&list[i]))
	}
	util.Success(c, util.Response{"items": items})
}

func (h *BackupHandler) find(c *gin.Context) (*models.Backup, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var backup models.Backup
	if err := h.DB.First(&backup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "Backup não encontrado")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao consultar backup")
		}
		return nil, false
	}
	return &backup, true
}

func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}

	if err := os.Remove(backup.FilePath); err != nil && !os.IsNotExist(err) {
		config.LogError(h.Logger, "handler", "DeleteBackup", "remove file", backup.FilePath, err)
	}
	if err := h.DB.Delete(backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao remover backup")
		return
	}

	util.Success(c, util.Response{"message": "Backup removido"})
}
