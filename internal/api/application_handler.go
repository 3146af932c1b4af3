package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobtrail/internal/database"
)

// ApplicationHandler 负责求职记录的增删改查。
type ApplicationHandler struct {
	db *gorm.DB
}

// NewApplicationHandler 构造 ApplicationHandler。
func NewApplicationHandler(db *gorm.DB) *ApplicationHandler {
	return &ApplicationHandler{db: db}
}

var errInvalidApplicationID = errors.New("invalid application id")

type createApplicationRequest struct {
	Company     string `json:"company" binding:"required"`
	Position    string `json:"position" binding:"required"`
	Status      string `json:"status"`
	JobURL      string `json:"job_url"`
	SalaryRange string `json:"salary_range"`
	Location    string `json:"location"`
	Notes       string `json:"notes"`
}

type updateApplicationRequest struct {
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	Status      *string `json:"status"`
	JobURL      *string `json:"job_url"`
	SalaryRange *string `json:"salary_range"`
	Location    *string `json:"location"`
	Notes       *string `json:"notes"`
}

type applicationResponse struct {
	ID          uint       `json:"id"`
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	Status      string     `json:"status"`
	JobURL      string     `json:"job_url,omitempty"`
	SalaryRange string     `json:"salary_range,omitempty"`
	Location    string     `json:"location,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	AppliedDate *time.Time `json:"applied_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListApplications 列出当前用户的全部求职记录。
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var applications []database.Application
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}

	items := make([]applicationResponse, 0, len(applications))
	for _, app := range applications {
		items = append(items, newApplicationResponse(app))
	}

	c.JSON(http.StatusOK, items)
}

// CreateApplication 新建一条求职记录，状态缺省为 interested。
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	status := req.Status
	if status == "" {
		status = database.StatusInterested
	}
	if !database.ValidStatus(status) {
		BadRequest(c, "unsupported status: "+status)
		return
	}

	application := database.Application{
		UserID:      userID,
		Company:     req.Company,
		Position:    req.Position,
		Status:      status,
		JobURL:      req.JobURL,
		SalaryRange: req.SalaryRange,
		Location:    req.Location,
		Notes:       req.Notes,
	}
	if status == database.StatusApplied {
		now := time.Now().UTC()
		application.AppliedDate = &now
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&application).Error; err != nil {
		Internal(c, "failed to create application")
		return
	}

	c.JSON(http.StatusCreated, newApplicationResponse(application))
}

// UpdateApplication 局部更新一条记录。状态可以在六个取值之间任意切换。
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	application, err := h.getApplicationForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	updates := map[string]any{}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.JobURL != nil {
		updates["job_url"] = *req.JobURL
	}
	if req.SalaryRange != nil {
		updates["salary_range"] = *req.SalaryRange
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Status != nil {
		if !database.ValidStatus(*req.Status) {
			BadRequest(c, "unsupported status: "+*req.Status)
			return
		}
		updates["status"] = *req.Status
		// 第一次进入 applied 时记下投递时间，此后不再改动。
		if *req.Status == database.StatusApplied && application.AppliedDate == nil {
			updates["applied_date"] = time.Now().UTC()
		}
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(application).Updates(updates).Error; err != nil {
			Internal(c, "failed to update application")
			return
		}
	}

	if err := h.db.WithContext(ctx).First(application, application.ID).Error; err != nil {
		Internal(c, "failed to reload application")
		return
	}

	c.JSON(http.StatusOK, newApplicationResponse(*application))
}

// DeleteApplication 删除一条记录。
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	application, err := h.getApplicationForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&database.Application{}, application.ID).Error; err != nil {
		Internal(c, "failed to delete application")
		return
	}

	c.Status(http.StatusNoContent)
}

// getApplicationForUser 同时校验归属：别人的记录与不存在的记录都返回
// gorm.ErrRecordNotFound，避免泄露记录是否存在。
func (h *ApplicationHandler) getApplicationForUser(ctx context.Context, idParam string, userID uint) (*database.Application, error) {
	applicationID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidApplicationID
	}

	var application database.Application
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(applicationID), userID).
		First(&application).Error; err != nil {
		return nil, err
	}

	return &application, nil
}

func (h *ApplicationHandler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidApplicationID):
		BadRequest(c, "invalid application id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "application not found")
	default:
		Internal(c, "failed to query application")
	}
}

func newApplicationResponse(app database.Application) applicationResponse {
	return applicationResponse{
		ID:          app.ID,
		Company:     app.Company,
		Position:    app.Position,
		Status:      app.Status,
		JobURL:      app.JobURL,
		SalaryRange: app.SalaryRange,
		Location:    app.Location,
		Notes:       app.Notes,
		AppliedDate: app.AppliedDate,
		CreatedAt:   app.CreatedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case uint64:
		return uint(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
