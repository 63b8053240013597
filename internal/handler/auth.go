package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

var usernameRe = regexp.MustCompile(`^[\p{L}0-9_.]{3,32}$`)

// AuthHandler serves register and login.
type AuthHandler struct {
	DB          *gorm.DB
	JWTSecret   string
	Issuer      string
	TokenTTL    time.Duration
	BcryptCost  int
	MaxAttempts int
	LockFor     time.Duration
	Logger      *logrus.Logger
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	ttlHours := cfg.JWT.ExpireHours
	if ttlHours <= 0 {
		ttlHours = 24
	}
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	attempts := cfg.Security.MaxLoginAttempts
	if attempts <= 0 {
		attempts = 5
	}
	lockMinutes := cfg.Security.LockMinutes
	if lockMinutes <= 0 {
		lockMinutes = 10
	}
	return &AuthHandler{
		DB:          db,
		JWTSecret:   cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		TokenTTL:    time.Duration(ttlHours) * time.Hour,
		BcryptCost:  cost,
		MaxAttempts: attempts,
		LockFor:     time.Duration(lockMinutes) * time.Minute,
		Logger:      logger,
	}
}

type registerReq struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=6,max=64"`
	DisplayName string `json:"display_name" binding:"max=64"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if !usernameRe.MatchString(req.Username) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Usuário deve ter de 3 a 32 letras, números, ponto ou sublinhado")
		return
	}

	user, err := CreateUser(h.DB, req.Username, req.Password, util.SanitizeString(req.DisplayName), h.BcryptCost)
	if errors.Is(err, ErrUserExists) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Usuário já existe")
		return
	}
	if err != nil {
		config.LogError(h.Logger, "handler", "Register", "create user", req.Username, err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao criar usuário")
		return
	}

	util.Success(c, util.Response{
		"message": "Usuário criado",
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
		},
	})
}

// ErrUserExists is returned by CreateUser for a taken username (case-insensitive).
var ErrUserExists = errors.New("username already exists")

// CreateUser hashes password with bcrypt and inserts the user. Shared with the CLI.
func CreateUser(db *gorm.DB, username, password, displayName string, cost int) (*models.User, error) {
	var count int64
	if err := db.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", username).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	var user models.User
	if err := h.DB.Where("LOWER(username) = LOWER(?)", req.Username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Usuário ou senha inválidos")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao consultar usuário")
		}
		return
	}

	now := time.Now()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Conta bloqueada temporariamente, tente mais tarde")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= h.MaxAttempts {
			lockUntil := now.Add(h.LockFor)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
			h.Logger.WithFields(logrus.Fields{"user_id": user.ID, "ip": c.ClientIP()}).Warn("account locked after failed logins")
		}
		_ = h.DB.Save(&user).Error
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Usuário ou senha inválidos")
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	_ = h.DB.Save(&user).Error

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.ID, user.Username, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro ao gerar token")
		return
	}

	entry := models.AccessLog{
		UserID:    user.ID,
		Action:    models.ActionLogin,
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Status:    http.StatusOK,
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		config.LogError(h.Logger, "handler", "Login", "write access log", user.ID, err)
	}

	util.Success(c, util.Response{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
		},
	})
}
