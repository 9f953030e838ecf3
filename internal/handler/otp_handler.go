package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OTPHandler struct {
	otpService service.OTPService
}

func NewOTPHandler(otpService service.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

func (h *OTPHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleUser, model.RoleCompany, model.RoleAdmin)
	otp := router.Group("/otp", anyRole)
	{
		otp.POST("/request", h.Request)
		otp.POST("/verify", h.Verify)
	}
}

// Request handles POST /otp/request
// @Summary      Request an OTP
// @Description  Emails a fresh one-time code to the authenticated account. A resend inside the cooldown window is rejected with Retry-After.
// @Tags         otp
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /otp/request [post]
func (h *OTPHandler) Request(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	if err := h.otpService.Request(c.Request.Context(), accountID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("OTP sent", nil))
}

// Verify handles POST /otp/verify
// @Summary      Verify an OTP
// @Description  Checks the submitted code against the live one; success marks the account verified
// @Tags         otp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object{otp=string}  true  "OTP Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /otp/verify [post]
func (h *OTPHandler) Verify(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Account ID not found in context"))
		return
	}

	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), accountID, req.OTP); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Account verified", nil))
}
