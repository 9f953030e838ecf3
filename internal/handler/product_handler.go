package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductHandler struct {
	productService   service.ProductService
	ratingService    service.RatingService
	nutritionService service.NutritionService
}

func NewProductHandler(
	productService service.ProductService,
	ratingService service.RatingService,
	nutritionService service.NutritionService,
) *ProductHandler {
	return &ProductHandler{
		productService:   productService,
		ratingService:    ratingService,
		nutritionService: nutritionService,
	}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		// Public routes
		products.GET("", h.ListApproved)

		// Role-scoped routes. Static paths come before the :productCode
		// wildcards so gin does not shadow them.
		products.GET("/pending-approvals", middleware.RequireRole(model.RoleAdmin), h.ListPendingApprovals)
		products.GET("/approved", middleware.RequireRole(model.RoleAdmin), h.ListApprovedAdmin)
		products.GET("/mine", middleware.RequireRole(model.RoleCompany), h.ListMine)
		products.POST("/register", middleware.RequireRole(model.RoleCompany), h.Register)
		products.POST("/handle-approval", middleware.RequireRole(model.RoleAdmin), h.HandleApproval)
		products.POST("/remove-approval", middleware.RequireRole(model.RoleAdmin), h.RemoveApproval)

		products.GET("/:productCode", h.GetByCode)
		products.GET("/:productCode/public-rating", h.GetPublicRating)
		products.POST("/:productCode/rate", middleware.RequireRole(model.RoleUser), h.Rate)
		products.GET("/:productCode/nutrition-score", h.NutritionScore)
		products.PATCH("/:productCode", middleware.RequireRole(model.RoleCompany), h.Update)
		products.DELETE("/:productCode", middleware.RequireRole(model.RoleCompany), h.Delete)
		products.POST("/:productCode/denial-viewed", middleware.RequireRole(model.RoleCompany), h.MarkDenialViewed)
	}
}

// ListApproved handles GET /products, the public catalog
// @Summary      List approved products
// @Description  Returns the publicly visible catalog, paginated, optionally filtered by name
// @Tags         products
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Name filter"
// @Success      200     {object}  response.Response{data=service.ProductListResponse}
// @Router       /products [get]
func (h *ProductHandler) ListApproved(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")

	list, err := h.productService.ListApproved(c.Request.Context(), params.Page, params.Limit, search)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Products fetched", list))
}

// ListPendingApprovals handles GET /products/pending-approvals [admin]
// @Summary      List products pending review
// @Description  Returns products waiting for an admin decision, newest first
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /products/pending-approvals [get]
func (h *ProductHandler) ListPendingApprovals(c *gin.Context) {
	products, err := h.productService.ListPendingReview(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Pending approvals fetched", products))
}

// ListApprovedAdmin handles GET /products/approved [admin]
// @Summary      List approved products (admin)
// @Description  Approved catalog for the admin dashboard; same data as the public listing, behind the admin role
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Name filter"
// @Success      200     {object}  response.Response{data=service.ProductListResponse}
// @Router       /products/approved [get]
func (h *ProductHandler) ListApprovedAdmin(c *gin.Context) {
	params := pagination.Parse(c)

	list, err := h.productService.ListApproved(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Approved products fetched", list))
}

// ListMine handles GET /products/mine [company]
// @Summary      List own products
// @Description  Returns every product registered by the authenticated company, whatever its review state
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /products/mine [get]
func (h *ProductHandler) ListMine(c *gin.Context) {
	companyID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	products, err := h.productService.ListMine(c.Request.Context(), companyID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Products fetched", products))
}

// Register handles POST /products/register [company], multipart form
// @Summary      Register a product
// @Description  Registers a new product with its image and nutritional declaration; it enters the review queue immediately
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        product_code  formData  string  true   "Product code"
// @Param        name          formData  string  true   "Name"
// @Param        category      formData  string  true   "Category"
// @Param        description   formData  string  true   "Description"
// @Param        price         formData  string  true   "Price"
// @Param        nutrition     formData  string  true   "Nutritional info as JSON"
// @Param        ingredients   formData  string  false  "Ingredients as JSON array"
// @Param        tags          formData  string  false  "Tags as JSON array"
// @Param        image         formData  file    true   "Product image"
// @Success      201           {object}  response.Response{data=model.Product}
// @Failure      400           {object}  response.Response
// @Failure      403           {object}  response.Response
// @Failure      409           {object}  response.Response
// @Router       /products/register [post]
func (h *ProductHandler) Register(c *gin.Context) {
	companyID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	req := service.RegisterProductRequest{
		ProductCode: c.PostForm("product_code"),
		Name:        c.PostForm("name"),
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
	}

	if raw := c.PostForm("nutrition"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Nutrition); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("nutrition must be valid JSON"))
			return
		}
	}
	if raw := c.PostForm("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("ingredients must be a JSON array"))
			return
		}
	}
	if raw := c.PostForm("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Tags); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("tags must be a JSON array"))
			return
		}
	}
	if raw := c.PostForm("manufacturing_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("manufacturing_date must be YYYY-MM-DD"))
			return
		}
		req.ManufacturingDate = t
	}
	if raw := c.PostForm("expiry_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("expiry_date must be YYYY-MM-DD"))
			return
		}
		req.ExpiryDate = t
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("could not read image file"))
			return
		}
		defer file.Close()
		req.Image = file
		req.ImageContentType = fileHeader.Header.Get("Content-Type")
	}

	product, err := h.productService.Register(c.Request.Context(), companyID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Product registered", product))
}

// Update handles PATCH /products/:productCode [company]
// @Summary      Update a product
// @Description  Edits an owned product; any edit sends it back through review
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response{data=model.Product}
// @Failure      400          {object}  response.Response
// @Failure      403          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Router       /products/{productCode} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	companyID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	product, err := h.productService.GetByCode(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	req := service.UpdateProductRequest{
		Name:        c.PostForm("name"),
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
	}
	if raw := c.PostForm("nutrition"); raw != "" {
		var nutrition model.NutritionalInfo
		if err := json.Unmarshal([]byte(raw), &nutrition); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("nutrition must be valid JSON"))
			return
		}
		req.Nutrition = &nutrition
	}
	if raw := c.PostForm("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("ingredients must be a JSON array"))
			return
		}
	}
	if raw := c.PostForm("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Tags); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("tags must be a JSON array"))
			return
		}
	}
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("could not read image file"))
			return
		}
		defer file.Close()
		req.Image = file
		req.ImageContentType = fileHeader.Header.Get("Content-Type")
	}

	updated, err := h.productService.Update(c.Request.Context(), companyID, product.ID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Product updated", updated))
}

// Delete handles DELETE /products/:productCode [company]
// @Summary      Delete a product
// @Description  Removes an owned product along with its ratings, favourites and stored image
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response
// @Failure      403          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Router       /products/{productCode} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	companyID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	product, err := h.productService.GetByCode(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := h.productService.Delete(c.Request.Context(), companyID, product.ID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Product deleted", nil))
}

// GetByCode handles GET /products/:productCode
// @Summary      Get product by code
// @Tags         products
// @Produce      json
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response{data=model.Product}
// @Failure      404          {object}  response.Response
// @Router       /products/{productCode} [get]
func (h *ProductHandler) GetByCode(c *gin.Context) {
	product, err := h.productService.GetByCode(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Product fetched", product))
}

// HandleApproval handles POST /products/handle-approval [admin]
// @Summary      Decide a product review
// @Description  Approves or denies a product with a pending review request; a denial may carry a reason
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.HandleApprovalRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /products/handle-approval [post]
func (h *ProductHandler) HandleApproval(c *gin.Context) {
	adminID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req service.HandleApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.HandleApproval(c.Request.Context(), adminID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Approval handled", product))
}

// RemoveApproval handles POST /products/remove-approval [admin]
// @Summary      Remove product approval
// @Description  Strips approval from an approved product and deletes it
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object{product_code=string}  true  "Product Code Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /products/remove-approval [post]
func (h *ProductHandler) RemoveApproval(c *gin.Context) {
	adminID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req struct {
		ProductCode string `json:"product_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	if err := h.productService.RemoveApproval(c.Request.Context(), adminID, req.ProductCode); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Approval removed and product deleted", nil))
}

// MarkDenialViewed handles POST /products/:productCode/denial-viewed [company]
// @Summary      Acknowledge a denial
// @Description  Marks a denial notification as seen by the owning company
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response
// @Failure      400          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Router       /products/{productCode}/denial-viewed [post]
func (h *ProductHandler) MarkDenialViewed(c *gin.Context) {
	companyID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	product, err := h.productService.GetByCode(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := h.productService.MarkDenialSeen(c.Request.Context(), companyID, product.ID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Denial acknowledged", nil))
}

// Rate handles POST /products/:productCode/rate [user]
// @Summary      Rate a product
// @Description  Submits or overwrites the caller's rating for an approved product and returns the fresh aggregate
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        productCode  path      string                       true  "Product Code"
// @Param        payload      body      service.SubmitRatingRequest  true  "Rating Payload"
// @Success      200          {object}  response.Response{data=service.PublicRatingResponse}
// @Failure      400          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Router       /products/{productCode}/rate [post]
func (h *ProductHandler) Rate(c *gin.Context) {
	userID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req service.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.ratingService.Submit(c.Request.Context(), userID, c.Param("productCode"), req.Rating)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Rating submitted", result))
}

// GetPublicRating handles GET /products/:productCode/public-rating
// @Summary      Get public rating
// @Description  Returns the rating aggregate for anyone; a valid credential additionally yields the caller's own rating
// @Tags         ratings
// @Produce      json
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response{data=service.PublicRatingResponse}
// @Failure      404          {object}  response.Response
// @Router       /products/{productCode}/public-rating [get]
func (h *ProductHandler) GetPublicRating(c *gin.Context) {
	var viewerID *uuid.UUID
	if id, ok := middleware.TryResolveViewer(c); ok {
		viewerID = &id
	}

	result, err := h.ratingService.GetPublicRating(c.Request.Context(), c.Param("productCode"), viewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Rating fetched", result))
}

// NutritionScore handles GET /products/:productCode/nutrition-score
// @Summary      Score a product's nutrition
// @Description  Proxies the product's declared nutrients to the external scoring model
// @Tags         products
// @Produce      json
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response{data=service.NutritionScore}
// @Failure      404          {object}  response.Response
// @Failure      502          {object}  response.Response
// @Router       /products/{productCode}/nutrition-score [get]
func (h *ProductHandler) NutritionScore(c *gin.Context) {
	score, err := h.nutritionService.Score(c.Request.Context(), c.Param("productCode"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Nutrition score fetched", score))
}
