package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docanalyst/internal/app"
	"docanalyst/internal/model"
	"docanalyst/internal/transport/http/response"
)

type AnalyzeRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

func (h *DocumentHandler) Analyze(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), app.AnalyzeInput{
		UserID:     userID,
		DocumentID: documentID,
		Question:   req.Question,
	})
	if err != nil {
		writeAnalysisError(c, err, "analyze document failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) Exchanges(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	list, err := h.service.ListExchanges(c.Request.Context(), userID, documentID)
	if err != nil {
		writeAnalysisError(c, err, "list exchanges failed")
		return
	}
	if list == nil {
		list = []model.Exchange{}
	}
	response.OK(c, list)
}
