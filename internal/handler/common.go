package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/middleware"
	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Não autenticado")
		return nil, false
	}
	return user, true
}

func actorOf(user *models.User) aih.Actor {
	return aih.Actor{UserID: user.ID, Username: user.Username}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "ID inválido")
		return 0, false
	}
	return uint(id), true
}

// writeServiceError maps the aih error kinds to HTTP status and business code.
func writeServiceError(c *gin.Context, err error) {
	var (
		sv *aih.SequenceViolation
		ve *aih.ValidationError
		se *aih.StorageError
	)
	switch {
	case errors.As(err, &sv):
		util.ErrorWithDetails(c, http.StatusConflict, util.CodeSequence,
			"Tipo de movimentação inválido. Esperado: "+string(sv.Expected)+", recebido: "+string(sv.Received),
			gin.H{"expected": sv.Expected, "received": sv.Received})
	case errors.As(err, &ve):
		util.ErrorWithDetails(c, http.StatusBadRequest, util.CodeInvalidParam, "Dados inválidos",
			gin.H{"field": ve.Field, "reason": ve.Reason})
	case errors.Is(err, aih.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "Não encontrado")
	case errors.Is(err, aih.ErrDuplicateRecord):
		util.Error(c, http.StatusConflict, util.CodeDuplicate, "AIH já cadastrada")
	case errors.Is(err, aih.ErrConcurrencyConflict):
		util.Error(c, http.StatusConflict, util.CodeConflict, "AIH em atualização, tente novamente")
	case errors.As(err, &se):
		_ = c.Error(err)
		util.Error(c, http.StatusServiceUnavailable, util.CodeStorage, "Falha temporária no banco de dados")
	default:
		_ = c.Error(err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Erro interno")
	}
}

func pageParams(c *gin.Context, defaultSize int) (page, size int) {
	if defaultSize <= 0 {
		defaultSize = 20
	}
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if size <= 0 || size > 100 {
		size = defaultSize
	}
	return page, size
}
