package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NewsHandler struct {
	newsService service.NewsService
}

func NewNewsHandler(newsService service.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

func (h *NewsHandler) RegisterRoutes(router *gin.RouterGroup) {
	news := router.Group("/news")
	{
		news.GET("", h.List)
		news.POST("", middleware.RequireRole(model.RoleAdmin), h.Create)
	}
}

// List handles GET /news
// @Summary      List news posts
// @Tags         news
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.News}
// @Router       /news [get]
func (h *NewsHandler) List(c *gin.Context) {
	items, err := h.newsService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("News fetched", items))
}

// Create handles POST /news [admin]
// @Summary      Publish a news post
// @Tags         news
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateNewsRequest  true  "News Payload"
// @Success      201      {object}  response.Response{data=model.News}
// @Failure      400      {object}  response.Response
// @Router       /news [post]
func (h *NewsHandler) Create(c *gin.Context) {
	authorID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req service.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.newsService.Create(c.Request.Context(), authorID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("News published", item))
}
