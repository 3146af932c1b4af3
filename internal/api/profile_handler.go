package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobtrail/internal/database"
)

// ProfileHandler 维护求职者档案，文书生成时会读取这些信息。
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler 构造 ProfileHandler。
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

type upsertProfileRequest struct {
	Experience        *string   `json:"experience"`
	Skills            *[]string `json:"skills"`
	Education         *string   `json:"education"`
	PreferredSalary   *string   `json:"preferred_salary"`
	PreferredLocation *string   `json:"preferred_location"`
	WorkMode          *string   `json:"work_mode"`
}

type profileResponse struct {
	ID                uint      `json:"id"`
	Experience        string    `json:"experience,omitempty"`
	Skills            []string  `json:"skills"`
	Education         string    `json:"education,omitempty"`
	PreferredSalary   string    `json:"preferred_salary,omitempty"`
	PreferredLocation string    `json:"preferred_location,omitempty"`
	WorkMode          string    `json:"work_mode,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetProfile 返回当前用户的档案，尚未建档时返回 null。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var profile database.Profile
	if err := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		Internal(c, "failed to query profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

// UpsertProfile 创建或更新档案，只覆盖请求中出现的字段。
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var profile database.Profile
	err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = database.Profile{UserID: userID}
		applyProfileRequest(&profile, req)
		if err := h.db.WithContext(ctx).Create(&profile).Error; err != nil {
			Internal(c, "failed to create profile")
			return
		}
	case err != nil:
		Internal(c, "failed to query profile")
		return
	default:
		applyProfileRequest(&profile, req)
		if err := h.db.WithContext(ctx).Save(&profile).Error; err != nil {
			Internal(c, "failed to update profile")
			return
		}
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func applyProfileRequest(profile *database.Profile, req upsertProfileRequest) {
	if req.Experience != nil {
		profile.Experience = *req.Experience
	}
	if req.Skills != nil {
		if encoded, err := json.Marshal(*req.Skills); err == nil {
			profile.Skills = datatypes.JSON(encoded)
		}
	}
	if req.Education != nil {
		profile.Education = *req.Education
	}
	if req.PreferredSalary != nil {
		profile.PreferredSalary = *req.PreferredSalary
	}
	if req.PreferredLocation != nil {
		profile.PreferredLocation = *req.PreferredLocation
	}
	if req.WorkMode != nil {
		profile.WorkMode = *req.WorkMode
	}
}

func newProfileResponse(profile database.Profile) profileResponse {
	skills := []string{}
	if len(profile.Skills) > 0 {
		_ = json.Unmarshal(profile.Skills, &skills)
	}

	return profileResponse{
		ID:                profile.ID,
		Experience:        profile.Experience,
		Skills:            skills,
		Education:         profile.Education,
		PreferredSalary:   profile.PreferredSalary,
		PreferredLocation: profile.PreferredLocation,
		WorkMode:          profile.WorkMode,
		UpdatedAt:         profile.UpdatedAt,
	}
}
