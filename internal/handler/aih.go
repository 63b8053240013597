package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// AIHHandler exposes records, movements and pendencies.
type AIHHandler struct {
	Service *aih.Service
}

func NewAIHHandler(svc *aih.Service) *AIHHandler {
	return &AIHHandler{Service: svc}
}

func (h *AIHHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req aih.CreateRecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
		return
	}

	rec, err := h.Service.CreateRecord(c.Request.Context(), req, actorOf(user))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	util.Success(c, util.Response{
		"id":     rec.ID,
		"number": rec.Number,
		"status": rec.Status,
	})
}

func (h *AIHHandler) GetByNumber(c *gin.Context) {
	rec, err := h.Service.GetRecord(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	attendances := make([]string, 0, len(rec.Attendances))
	for _, a := range rec.Attendances {
		attendances = append(attendances, a.Number)
	}

	movements := make([]gin.H, 0, len(rec.Movements))
	for _, m := range rec.Movements {
		movements = append(movements, movementJSON(m))
	}

	glosas := make([]gin.H, 0, len(rec.Glosas))
	for _, g := range rec.Glosas {
		glosas = append(glosas, glosaJSON(g))
	}

	util.Success(c, util.Response{
		"aih": gin.H{
			"id":            rec.ID,
			"number":        rec.Number,
			"initial_value": rec.InitialValue,
			"current_value": rec.CurrentValue,
			"status":        rec.Status,
			"status_label":  rec.Status.Label(),
			"competence":    rec.Competence,
			"created_at":    rec.CreatedAt,
			"attendances":   attendances,
			"movements":     movements,
			"glosas":        glosas,
		},
	})
}

func (h *AIHHandler) NextMovement(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	next, err := h.Service.NextMovement(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	util.Success(c, util.Response{"next": next})
}

func (h *AIHHandler) SubmitMovement(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req aih.MovementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
		return
	}

	rec, err := h.Service.SubmitMovement(c.Request.Context(), id, req, actorOf(user))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	util.Success(c, util.Response{
		"message":       "Movimentação registrada",
		"status":        rec.Status,
		"current_value": rec.CurrentValue,
	})
}

func (h *AIHHandler) ListGlosas(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	list, err := h.Service.ListPendencies(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, g := range list {
		items = append(items, glosaJSON(g))
	}
	util.Success(c, util.Response{"glosas": items})
}

func (h *AIHHandler) AddGlosa(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req aih.PendencyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "Parâmetros inválidos")
		return
	}

	glosaID, err := h.Service.AddPendency(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"id": glosaID})
}

func (h *AIHHandler) RetireGlosa(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.Service.RetirePendency(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "Glosa removida"})
}

func movementJSON(m models.Movement) gin.H {
	return gin.H{
		"id":                 m.ID,
		"kind":               m.Kind,
		"kind_label":         m.Kind.Label(),
		"moved_at":           m.MovedAt,
		"user_id":            m.UserID,
		"value":              m.Value,
		"competence":         m.Competence,
		"status":             m.ResultingStatus,
		"prof_medicine":      m.ProfMedicine,
		"prof_nursing":       m.ProfNursing,
		"prof_physiotherapy": m.ProfPhysio,
		"prof_maxillofacial": m.ProfMaxillo,
		"note":               m.Note,
	}
}

func glosaJSON(g models.Glosa) gin.H {
	return gin.H{
		"id":           g.ID,
		"aih_id":       g.AIHID,
		"line":         g.Line,
		"category":     g.Category,
		"professional": g.Professional,
		"quantity":     g.Quantity,
		"active":       g.Active,
		"created_at":   g.CreatedAt,
	}
}
