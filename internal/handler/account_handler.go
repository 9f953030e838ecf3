package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService service.AccountService
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/refresh", h.RefreshToken)
	router.POST("/logout", h.Logout)

	// Me routes (authenticated, any role)
	anyRole := middleware.RequireRole(model.RoleUser, model.RoleCompany, model.RoleAdmin)
	router.GET("/me", anyRole, h.GetMe)
	router.PATCH("/profile", anyRole, h.UpdateProfile)
	router.POST("/profile/avatar", anyRole, h.UpdateAvatar)

	accounts := router.Group("/accounts")
	{
		accounts.POST("/request-approval", middleware.RequireRole(model.RoleCompany), h.RequestApproval)
		accounts.GET("/pending-verifications", middleware.RequireRole(model.RoleAdmin), h.ListPendingVerifications)
		accounts.POST("/handle-verification", middleware.RequireRole(model.RoleAdmin), h.HandleVerification)
		accounts.POST("/:accountId/remove-approval", middleware.RequireRole(model.RoleAdmin), h.RemoveApproval)
	}

	favourites := router.Group("/favourites", middleware.RequireRole(model.RoleUser))
	{
		favourites.GET("", h.ListFavourites)
		favourites.POST("/:productCode", h.AddFavourite)
		favourites.DELETE("/:productCode", h.RemoveFavourite)
	}
}

// Signup handles POST /signup to register a new account
// @Summary      Register an account
// @Description  Creates a user or company account; the account starts unverified until the OTP flow completes
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignupRequest  true  "Signup Payload"
// @Success      201      {object}  response.Response{data=service.AccountResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /signup [post]
func (h *AccountHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Account created successfully", account))
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login
// @Description  Authenticates by email and password, returning access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	tokenRes, err := h.accountService.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// Set tokens as HttpOnly cookies
	middleware.SetTokenCookies(c, tokenRes.Token, tokenRes.RefreshToken)

	c.JSON(http.StatusOK, response.Success("Logged in successfully", tokenRes))
}

// RefreshToken handles POST /refresh to issue a new access token
// @Summary      Refresh token
// @Description  Issues a new access token using a valid refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response{data=service.TokenResponse}
// @Failure      401  {object}  response.Response
// @Router       /refresh [post]
func (h *AccountHandler) RefreshToken(c *gin.Context) {
	// Try the cookie first, fall back to the body
	refreshToken, cookieErr := c.Cookie("refresh_token")
	if cookieErr != nil || refreshToken == "" {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
			return
		}
		refreshToken = req.RefreshToken
	}

	tokenRes, err := h.accountService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		abortWithError(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokenRes.Token, tokenRes.RefreshToken)

	c.JSON(http.StatusOK, response.Success("Token refreshed", tokenRes))
}

// Logout handles POST /logout to clear auth cookies and revoke the refresh token
func (h *AccountHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie("refresh_token")
	_ = h.accountService.Logout(c.Request.Context(), refreshToken)
	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success("Logged out", nil))
}

// GetMe handles GET /me to return the authenticated account
// @Summary      Get current account
// @Description  Returns the currently authenticated account with its role-specific profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.AccountResponse}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *AccountHandler) GetMe(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Account fetched", account))
}

// UpdateProfile handles PATCH /profile
// @Summary      Update profile
// @Description  Updates the authenticated account's profile; only fields matching the account's role are applied
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateProfileRequest  true  "Profile Payload"
// @Success      200      {object}  response.Response{data=service.AccountResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /profile [patch]
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.accountService.UpdateProfile(c.Request.Context(), accountID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Profile updated", account))
}

// UpdateAvatar handles POST /profile/avatar with a multipart image
// @Summary      Upload avatar
// @Description  Replaces the authenticated account's avatar image
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "Avatar image"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      502    {object}  response.Response
// @Router       /profile/avatar [post]
func (h *AccountHandler) UpdateAvatar(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("image file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("could not read image file"))
		return
	}
	defer file.Close()

	url, err := h.accountService.UpdateAvatar(c.Request.Context(), accountID, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Avatar updated", gin.H{"avatar_url": url}))
}

// RequestApproval handles POST /accounts/request-approval [company]
// @Summary      Request company approval
// @Description  Puts a verified company account into the admin verification queue
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /accounts/request-approval [post]
func (h *AccountHandler) RequestApproval(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	if err := h.accountService.RequestApproval(c.Request.Context(), accountID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Approval requested", nil))
}

// ListPendingVerifications handles GET /accounts/pending-verifications [admin]
// @Summary      List pending company verifications
// @Description  Returns company accounts waiting for an admin verification decision, newest first
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.AccountResponse}
// @Router       /accounts/pending-verifications [get]
func (h *AccountHandler) ListPendingVerifications(c *gin.Context) {
	accounts, err := h.accountService.ListPendingVerifications(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Pending verifications fetched", accounts))
}

// HandleVerification handles POST /accounts/handle-verification [admin]
// @Summary      Decide a company verification
// @Description  Approves or denies a pending company verification request
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.HandleVerificationRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=service.AccountResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /accounts/handle-verification [post]
func (h *AccountHandler) HandleVerification(c *gin.Context) {
	adminID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req service.HandleVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	account, err := h.accountService.HandleVerification(c.Request.Context(), adminID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Verification handled", account))
}

// RemoveApproval handles POST /accounts/:accountId/remove-approval [admin]
// @Summary      Remove company approval
// @Description  Strips approval from a previously approved company account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId  path      string  true  "Account ID"
// @Success      200        {object}  response.Response{data=service.AccountResponse}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /accounts/{accountId}/remove-approval [post]
func (h *AccountHandler) RemoveApproval(c *gin.Context) {
	adminID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	accountID, err := parseUUIDParam(c, "accountId")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("invalid account id"))
		return
	}

	account, err := h.accountService.RemoveApproval(c.Request.Context(), adminID, accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Approval removed", account))
}

// AddFavourite handles POST /favourites/:productCode [user]
// @Summary      Add favourite
// @Tags         favourites
// @Produce      json
// @Security     BearerAuth
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Failure      409          {object}  response.Response
// @Router       /favourites/{productCode} [post]
func (h *AccountHandler) AddFavourite(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	if err := h.accountService.AddFavourite(c.Request.Context(), accountID, c.Param("productCode")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Added to favourites", nil))
}

// RemoveFavourite handles DELETE /favourites/:productCode [user]
// @Summary      Remove favourite
// @Tags         favourites
// @Produce      json
// @Security     BearerAuth
// @Param        productCode  path      string  true  "Product Code"
// @Success      200          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Router       /favourites/{productCode} [delete]
func (h *AccountHandler) RemoveFavourite(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	if err := h.accountService.RemoveFavourite(c.Request.Context(), accountID, c.Param("productCode")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Removed from favourites", nil))
}

// ListFavourites handles GET /favourites [user]
// @Summary      List favourites
// @Tags         favourites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Favourite}
// @Router       /favourites [get]
func (h *AccountHandler) ListFavourites(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	favourites, err := h.accountService.ListFavourites(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Favourites fetched", favourites))
}
