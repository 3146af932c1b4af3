package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobtrail/internal/api/middleware"
	"jobtrail/internal/database"
	"jobtrail/internal/llm"
	"jobtrail/internal/metrics"
)

const defaultTone = "professional"

// textGenerator 抽象上游 LLM，测试中可替换为假实现。
type textGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DocumentHandler 负责文书生成与历史查询。
type DocumentHandler struct {
	db        *gorm.DB
	generator textGenerator
	logger    *slog.Logger
}

// NewDocumentHandler 构造 DocumentHandler。
func NewDocumentHandler(db *gorm.DB, generator textGenerator, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		db:        db,
		generator: generator,
		logger:    logger,
	}
}

type generateDocumentRequest struct {
	ApplicationID  uint   `json:"application_id" binding:"required"`
	Type           string `json:"type" binding:"required"`
	Tone           string `json:"tone"`
	JobDescription string `json:"job_description"`
}

type documentResponse struct {
	ID            uint      `json:"id"`
	ApplicationID uint      `json:"application_id"`
	Type          string    `json:"type"`
	Tone          string    `json:"tone"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// GenerateDocument 同步调用 LLM 生成文书并落库。
// 上游失败时不写入任何 Document，既有历史保持不变。
func (h *DocumentHandler) GenerateDocument(c *gin.Context) {
	var req generateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if !database.ValidDocumentType(req.Type) {
		BadRequest(c, "unsupported document type: "+req.Type)
		return
	}

	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultTone
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("application_id", uint64(req.ApplicationID)),
		slog.String("type", req.Type),
	)

	var application database.Application
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", req.ApplicationID, userID).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "application not found")
			return
		}
		logger.Error("load application failed", slog.Any("error", err))
		Internal(c, "failed to query application")
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		logger.Error("load user failed", slog.Any("error", err))
		Internal(c, "failed to query user")
		return
	}

	data := llm.PromptData{
		Company:        application.Company,
		Position:       application.Position,
		Location:       application.Location,
		SalaryRange:    application.SalaryRange,
		Notes:          application.Notes,
		Name:           user.Name,
		Email:          user.Email,
		JobDescription: req.JobDescription,
		Tone:           tone,
	}
	h.attachProfile(ctx, userID, &data)

	prompt, err := llm.BuildPrompt(req.Type, data)
	if err != nil {
		logger.Error("build prompt failed", slog.Any("error", err))
		Internal(c, "failed to build prompt")
		return
	}

	start := time.Now()
	content, err := h.generator.Complete(ctx, prompt)
	if err != nil {
		metrics.ObserveGeneration(req.Type, "failure", time.Since(start))
		logger.Error("document generation failed", slog.Any("error", err))
		BadGateway(c, "document generation failed")
		return
	}
	metrics.ObserveGeneration(req.Type, "success", time.Since(start))

	document := database.Document{
		ApplicationID: application.ID,
		UserID:        userID,
		Type:          req.Type,
		Tone:          tone,
		Content:       content,
	}
	if err := h.db.WithContext(ctx).Create(&document).Error; err != nil {
		logger.Error("persist document failed", slog.Any("error", err))
		Internal(c, "failed to save document")
		return
	}

	logger.Info("document generated", slog.Uint64("document_id", uint64(document.ID)))
	c.JSON(http.StatusCreated, newDocumentResponse(document))
}

// ListDocuments 返回某条求职记录的全部文书，按生成时间倒序。
// 归属校验与生成接口一致：别人的记录一律 404。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	applicationID, err := strconv.ParseUint(c.Param("applicationId"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid application id")
		return
	}

	ctx := c.Request.Context()
	var application database.Application
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(applicationID), userID).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "application not found")
			return
		}
		Internal(c, "failed to query application")
		return
	}

	var documents []database.Document
	if err := h.db.WithContext(ctx).
		Where("application_id = ?", application.ID).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		Internal(c, "failed to list documents")
		return
	}

	items := make([]documentResponse, 0, len(documents))
	for _, doc := range documents {
		items = append(items, newDocumentResponse(doc))
	}

	c.JSON(http.StatusOK, items)
}

// attachProfile 把用户档案并入提示词数据；没有档案不算错误。
func (h *DocumentHandler) attachProfile(ctx context.Context, userID uint, data *llm.PromptData) {
	var profile database.Profile
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return
	}

	data.HasProfile = true
	data.Experience = profile.Experience
	data.Education = profile.Education

	var skills []string
	if len(profile.Skills) > 0 {
		if err := json.Unmarshal(profile.Skills, &skills); err == nil {
			data.Skills = strings.Join(skills, ", ")
		}
	}
}

func newDocumentResponse(doc database.Document) documentResponse {
	return documentResponse{
		ID:            doc.ID,
		ApplicationID: doc.ApplicationID,
		Type:          doc.Type,
		Tone:          doc.Tone,
		Content:       doc.Content,
		CreatedAt:     doc.CreatedAt,
	}
}

func (h *DocumentHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
