package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	profileRepo "medilink/database/repository/profile"
	"medilink/middleware"
	"medilink/models"
	"medilink/utils"
)

const (
	tokenLifetime     = 24 * time.Hour
	doctorCachePrefix = "doctor:"
	doctorCacheTTL    = 10 * time.Minute
)

// ProfileHandler owns patient and doctor registration and profile reads.
type ProfileHandler struct {
	Repo profileRepo.ProfileRepository
}

func NewProfileHandler(repo profileRepo.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{Repo: repo}
}

type registerPatientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type registerDoctorRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Specialty   string  `json:"specialty"`
	SessionRate float64 `json:"sessionRate" binding:"required,gt=0"`
}

// RegisterPatient creates a patient profile with an empty wallet and returns
// a bearer token for it.
func (h *ProfileHandler) RegisterPatient(c *gin.Context) {
	var req registerPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	now := time.Now()
	profile := &models.PatientProfile{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Repo.CreatePatient(c.Request.Context(), profile); err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := utils.GenerateToken(profile.ID, string(models.RolePatient), tokenLifetime)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile, "token": token})
}

// RegisterDoctor creates a doctor profile with a published session rate and
// returns a bearer token for it.
func (h *ProfileHandler) RegisterDoctor(c *gin.Context) {
	var req registerDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	now := time.Now()
	profile := &models.DoctorProfile{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Specialty:   req.Specialty,
		SessionRate: req.SessionRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Repo.CreateDoctor(c.Request.Context(), profile); err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := utils.GenerateToken(profile.ID, string(models.RoleDoctor), tokenLifetime)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile, "token": token})
}

// GetDoctor is public: patients consult the profile (and its session rate)
// before booking. Profiles are cached briefly; the rate copied at booking
// time always comes from the store, never from this cache.
func (h *ProfileHandler) GetDoctor(c *gin.Context) {
	doctorID := c.Param("doctorId")
	ctx := c.Request.Context()
	cache := utils.GetCacheClient()
	cacheKey := doctorCachePrefix + doctorID

	if data, err := cache.Get(ctx, cacheKey).Result(); err == nil {
		var cached models.DoctorProfile
		if err := json.Unmarshal([]byte(data), &cached); err == nil {
			c.JSON(http.StatusOK, &cached)
			return
		}
	}

	profile, err := h.Repo.GetDoctor(ctx, doctorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if data, err := json.Marshal(profile); err == nil {
		if err := cache.Set(ctx, cacheKey, data, doctorCacheTTL).Err(); err != nil {
			zap.L().Warn("failed to cache doctor profile", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, profile)
}

// Me returns the caller's own profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	if role == models.RoleDoctor {
		profile, err := h.Repo.GetDoctor(c.Request.Context(), callerID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
		return
	}

	profile, err := h.Repo.GetPatient(c.Request.Context(), callerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetFCMToken stores the caller's push token for reminder delivery.
func (h *ProfileHandler) SetFCMToken(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	var err error
	if role == models.RoleDoctor {
		err = h.Repo.SetDoctorFCMToken(c.Request.Context(), callerID, req.Token)
	} else {
		err = h.Repo.SetPatientFCMToken(c.Request.Context(), callerID, req.Token)
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
