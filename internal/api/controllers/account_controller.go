package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/models/response_models"
	"subtrack/internal/services"
	"subtrack/pkg/middleware"
	"subtrack/pkg/utils"
)

type AccountController struct {
	accountService services.AccountServiceInterface
	cookies        utils.CookieOptions
}

func NewAccountController(accountService services.AccountServiceInterface, cookies utils.CookieOptions) *AccountController {
	return &AccountController{
		accountService: accountService,
		cookies:        cookies,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create a free account and start a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.SignUpRequest true "Account registration payload"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /auth/register [post]
func (a *AccountController) Register(c *gin.Context) {
	var req request_models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, pair, err := a.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	a.startSession(c, pair)
	utils.RespondStatus(c, http.StatusCreated, loginResponse(user, pair), "Account created successfully")
}

// Login godoc
// @Summary Login to an account
// @Description Authenticate with email and password and start a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /auth/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, pair, err := a.accountService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	a.startSession(c, pair)
	utils.RespondSuccess(c, loginResponse(user, pair), "Login successful")
}

// Logout godoc
// @Summary Logout
// @Description Clear the session cookies
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /auth/logout [post]
func (a *AccountController) Logout(c *gin.Context) {
	utils.ClearSessionCookies(c, a.cookies)
	utils.RespondSuccess(c, nil, "Logged out")
}

// Me godoc
// @Summary Current account
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (a *AccountController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := a.accountService.Me(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewAccountResponse(user), "Account fetched successfully")
}

// Home godoc
// @Summary Landing state
// @Description Reports whether the caller has a session; never fails for anonymous callers
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router / [get]
func (a *AccountController) Home(c *gin.Context) {
	resp := response_models.HomeResponse{}
	if identity, ok := middleware.CurrentIdentity(c); ok {
		resp.Authenticated = true
		resp.Plan = identity.Plan
	}
	utils.RespondSuccess(c, resp, "")
}

func (a *AccountController) startSession(c *gin.Context, pair *services.TokenPair) {
	utils.SetSessionCookies(c, a.cookies, pair.AccessToken, pair.AccessExpiresAt, pair.RefreshToken, pair.RefreshExpiresAt)
}

func loginResponse(user *db_models.User, pair *services.TokenPair) response_models.AccountLoginResponse {
	return response_models.AccountLoginResponse{
		Account:          response_models.NewAccountResponse(user),
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
