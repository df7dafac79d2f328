package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionCookieMaxAge = 60 * 60 * 24 // 24 hours, matches auth.SessionTTL

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.config.Admin.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.Admin.Password)) == 1
	if !emailOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := s.sessions.Issue()
	if err != nil {
		s.logger.Error("Failed to issue session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("admin_token", token, sessionCookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) adminLogout(c *gin.Context) {
	c.SetCookie("admin_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) adminStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to load stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) adminRevenue(c *gin.Context) {
	total, paidOrders, err := s.store.Revenue(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to load revenue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch revenue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalRevenue": total, "orders": paidOrders})
}

func (s *Server) adminPayments(c *gin.Context) {
	payments, err := s.store.ListPayments(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to load payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (s *Server) adminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := s.store.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page})
}

// orderAudit serves the lifecycle trail of one order, newest first. An
// empty list when no audit store is configured.
func (s *Server) orderAudit(c *gin.Context) {
	if s.audit == nil {
		c.JSON(http.StatusOK, []*repository.AuditLog{})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := s.audit.GetAuditLogs(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.logger.Error("Failed to load audit trail", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit trail"})
		return
	}
	if logs == nil {
		logs = []*repository.AuditLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// Hero settings

func (s *Server) getHero(c *gin.Context) {
	settings, err := s.store.GetHeroSettings(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to load hero settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) saveHero(c *gin.Context) {
	var settings models.HeroSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	saved, err := s.store.SaveHeroSettings(c.Request.Context(), &settings)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Settings not found"})
			return
		}
		s.logger.Error("Failed to save hero settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving settings"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Testimonials

func (s *Server) listTestimonials(c *gin.Context) {
	testimonials, err := s.store.ListTestimonials(c.Request.Context(), true)
	if err != nil {
		s.logger.Error("Failed to list testimonials", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch testimonials"})
		return
	}
	c.JSON(http.StatusOK, testimonials)
}

func (s *Server) adminListTestimonials(c *gin.Context) {
	testimonials, err := s.store.ListTestimonials(c.Request.Context(), false)
	if err != nil {
		s.logger.Error("Failed to list testimonials", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch testimonials"})
		return
	}
	c.JSON(http.StatusOK, testimonials)
}

type testimonialRequest struct {
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
	Quote    string `json:"quote" binding:"required"`
	Rating   int    `json:"rating"`
	IsActive *bool  `json:"is_active"`
}

func (s *Server) createTestimonial(c *gin.Context) {
	var req testimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := &models.Testimonial{
		Name:     req.Name,
		Role:     req.Role,
		Quote:    req.Quote,
		Rating:   req.Rating,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := s.store.CreateTestimonial(c.Request.Context(), t); err != nil {
		s.logger.Error("Failed to create testimonial", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create testimonial"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) updateTestimonial(c *gin.Context) {
	var req testimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":  req.Name,
		"role":  req.Role,
		"quote": req.Quote,
	}
	if req.Rating > 0 {
		updates["rating"] = req.Rating
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	t, err := s.store.UpdateTestimonial(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Testimonial not found"})
			return
		}
		s.logger.Error("Failed to update testimonial", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update testimonial"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTestimonial(c *gin.Context) {
	if err := s.store.DeleteTestimonial(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Testimonial not found"})
			return
		}
		s.logger.Error("Failed to delete testimonial", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete testimonial"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
