package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// CatalogHandler manages the glosa type and professional lists.
type CatalogHandler struct {
	Service *aih.Service
}

func NewCatalogHandler(svc *aih.Service) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

func (h *CatalogHandler) ListGlosaTypes(c *gin.Context) {
	list, err := h.Service.ListGlosaTypes(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, t := range list {
		items = append(items, gin.H{"id": t.ID, "description": t.Description})
	}
	util.Success(c, util.Response{"types": items})
}

type glosaTypeReq struct {
	Description string `json:"description" binding:"required"`
}

func (h *CatalogHandler) CreateGlosaType(c *gin.Context) {
	var req glosaTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Descrição obrigatória")
		return
	}

	t, err := h.Service.CreateGlosaType(c.Request.Context(), req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"id": t.ID, "description": t.Description})
}

func (h *CatalogHandler) DeleteGlosaType(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteGlosaType(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "Tipo de glosa removido"})
}

func (h *CatalogHandler) ListProfessionals(c *gin.Context) {
	list, err := h.Service.ListProfessionals(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, p := range list {
		items = append(items, gin.H{"id": p.ID, "name": p.Name, "specialty": p.Specialty})
	}
	util.Success(c, util.Response{"professionals": items})
}

type professionalReq struct {
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty" binding:"required"`
}

func (h *CatalogHandler) CreateProfessional(c *gin.Context) {
	var req professionalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Nome e especialidade obrigatórios")
		return
	}

	p, err := h.Service.CreateProfessional(c.Request.Context(), req.Name, req.Specialty)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"id": p.ID, "name": p.Name, "specialty": p.Specialty})
}

func (h *CatalogHandler) DeleteProfessional(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteProfessional(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "Profissional removido"})
}
