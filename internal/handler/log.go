package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// LogHandler serves the access log.
type LogHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewLogHandler(db *gorm.DB, pageSize int) *LogHandler {
	return &LogHandler{DB: db, PageSize: pageSize}
}

type logResp struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs GET /api/logs?page=&page_size=&start=&end=&q=&user_id=
func (h *LogHandler) ListLogs(c *gin.Context) {
	page, size := pageParams(c, h.PageSize)
	offset := (page - 1) * size

	base := h.DB.Model(&models.AccessLog{}).
		Joins("LEFT JOIN users ON users.id = access_logs.user_id")

	if s := c.Query("start"); s != "" {
		start, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Data inicial inválida")
			return
		}
		base = base.Where("access_logs.created_at >= ?", start)
	}
	if e := c.Query("end"); e != "" {
		end, err := time.ParseInLocation("2006-01-02", e, time.Local)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Data final inválida")
			return
		}
		base = base.Where("access_logs.created_at < ?", end.Add(24*time.Hour))
	}
	if uid := c.Query("user_id"); uid != "" {
		base = base.Where("access_logs.user_id = ?", uid)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := util.ContainsPattern(q)
		base = base.Where(`access_logs.path LIKE ? ESCAPE '\' OR access_logs.action LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao consultar logs")
		return
	}

	items := []logResp{}
	if err := base.Session(&gorm.Session{}).
		Select("access_logs.*, users.username AS username").
		Order("access_logs.created_at DESC, access_logs.id DESC").
		Limit(size).
		Offset(offset).
		Scan(&items).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao consultar logs")
		return
	}

	util.Success(c, util.Response{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}
