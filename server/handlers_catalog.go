package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// serviceView presents the stored JSON-string lists as real arrays.
type serviceView struct {
	models.Service
	Includes []string `json:"includes"`
	Features []string `json:"features"`
}

func viewService(svc models.Service) serviceView {
	view := serviceView{Service: svc}
	if err := json.Unmarshal([]byte(svc.Includes), &view.Includes); err != nil || view.Includes == nil {
		view.Includes = []string{}
	}
	if err := json.Unmarshal([]byte(svc.Features), &view.Features); err != nil || view.Features == nil {
		view.Features = []string{}
	}
	return view
}

func viewServices(services []models.Service) []serviceView {
	views := make([]serviceView, len(services))
	for i, svc := range services {
		views[i] = viewService(svc)
	}
	return views
}

// Services

func (s *Server) listServices(c *gin.Context) {
	services, err := s.store.ListServices(c.Request.Context(), true)
	if err != nil {
		s.logger.Error("Failed to list services", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}
	c.JSON(http.StatusOK, viewServices(services))
}

func (s *Server) adminListServices(c *gin.Context) {
	services, err := s.store.ListServices(c.Request.Context(), false)
	if err != nil {
		s.logger.Error("Failed to list services", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch services"})
		return
	}
	c.JSON(http.StatusOK, viewServices(services))
}

func (s *Server) getService(c *gin.Context) {
	svc, err := s.store.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
			return
		}
		s.logger.Error("Failed to get service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch service"})
		return
	}
	c.JSON(http.StatusOK, viewService(*svc))
}

type serviceRequest struct {
	Title              string   `json:"title" binding:"required"`
	Description        string   `json:"description"`
	Duration           string   `json:"duration"`
	Format             string   `json:"format"`
	Price              float64  `json:"price" binding:"required,gt=0"`
	Category           string   `json:"category"`
	RequiresSlot       bool     `json:"requires_slot"`
	SalesCount         int      `json:"sales_count"`
	ShowSalesCount     bool     `json:"show_sales_count"`
	AutoIncrementSales bool     `json:"auto_increment_sales"`
	IsPopular          bool     `json:"is_popular"`
	IsBestSeller       bool     `json:"is_best_seller"`
	Includes           []string `json:"includes"`
	Features           []string `json:"features"`
	MeetingURL         string   `json:"meeting_url"`
	IsActive           *bool    `json:"is_active"`
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func (s *Server) createService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := &models.Service{
		Title:              req.Title,
		Description:        req.Description,
		Duration:           req.Duration,
		Format:             req.Format,
		Price:              req.Price,
		Category:           req.Category,
		RequiresSlot:       req.RequiresSlot,
		SalesCount:         req.SalesCount,
		ShowSalesCount:     req.ShowSalesCount,
		AutoIncrementSales: req.AutoIncrementSales,
		IsPopular:          req.IsPopular,
		IsBestSeller:       req.IsBestSeller,
		Includes:           encodeList(req.Includes),
		Features:           encodeList(req.Features),
		MeetingURL:         req.MeetingURL,
		IsActive:           req.IsActive == nil || *req.IsActive,
	}
	if err := s.store.CreateService(c.Request.Context(), svc); err != nil {
		s.logger.Error("Failed to create service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service"})
		return
	}
	c.JSON(http.StatusOK, viewService(*svc))
}

func (s *Server) updateService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"title":                req.Title,
		"description":          req.Description,
		"duration":             req.Duration,
		"format":               req.Format,
		"price":                req.Price,
		"category":             req.Category,
		"requires_slot":        req.RequiresSlot,
		"sales_count":          req.SalesCount,
		"show_sales_count":     req.ShowSalesCount,
		"auto_increment_sales": req.AutoIncrementSales,
		"is_popular":           req.IsPopular,
		"is_best_seller":       req.IsBestSeller,
		"includes":             encodeList(req.Includes),
		"features":             encodeList(req.Features),
		"meeting_url":          req.MeetingURL,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	svc, err := s.store.UpdateService(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
			return
		}
		s.logger.Error("Failed to update service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update service"})
		return
	}
	c.JSON(http.StatusOK, viewService(*svc))
}

func (s *Server) deleteService(c *gin.Context) {
	if err := s.store.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
			return
		}
		s.logger.Error("Failed to delete service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete service"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Products

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.store.ListProducts(c.Request.Context(), true)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) adminListProducts(c *gin.Context) {
	products, err := s.store.ListProducts(c.Request.Context(), false)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	product, err := s.store.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error("Failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price"`
	FileURL       string   `json:"file_url"`
	ImageURL      string   `json:"image_url"`
	IsActive      *bool    `json:"is_active"`
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &models.Product{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		FileURL:       req.FileURL,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if err := s.store.CreateProduct(c.Request.Context(), product); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"price":       req.Price,
		"file_url":    req.FileURL,
		"image_url":   req.ImageURL,
	}
	if req.OriginalPrice != nil {
		updates["original_price"] = *req.OriginalPrice
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	product, err := s.store.UpdateProduct(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error("Failed to update product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.store.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error("Failed to delete product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Slots

// serviceSlots is the checkout availability query: unbooked slots for the
// next 30 days.
func (s *Server) serviceSlots(c *gin.Context) {
	now := time.Now()
	slots, err := s.store.AvailableSlots(c.Request.Context(), c.Param("id"), now, now.AddDate(0, 0, 30))
	if err != nil {
		s.logger.Error("Failed to list slots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch slots"})
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (s *Server) adminListSlots(c *gin.Context) {
	var from, to *time.Time
	if start := c.Query("startDate"); start != "" {
		if end := c.Query("endDate"); end != "" {
			startTime, err1 := time.Parse(time.RFC3339, start)
			endTime, err2 := time.Parse(time.RFC3339, end)
			if err1 != nil || err2 != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range"})
				return
			}
			from, to = &startTime, &endTime
		}
	}

	slots, err := s.store.ListSlots(c.Request.Context(), c.Query("serviceId"), from, to)
	if err != nil {
		s.logger.Error("Failed to list slots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch slots"})
		return
	}
	c.JSON(http.StatusOK, slots)
}

type slotRequest struct {
	ServiceID string    `json:"serviceId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
}

func (s *Server) createSlot(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	slot, err := s.store.CreateSlot(c.Request.Context(), req.ServiceID, req.StartTime)
	if err != nil {
		s.logger.Error("Failed to create slot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create slot"})
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (s *Server) deleteSlot(c *gin.Context) {
	if err := s.store.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
			return
		}
		s.logger.Error("Failed to delete slot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete slot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
