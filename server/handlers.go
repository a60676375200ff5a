package server

import (
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/filter"
	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

const anonymousAuthor = "anonymous"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// AdminHandlers serves the admin account endpoints and the comment
// endpoints guarded by the filter chain.
type AdminHandlers struct {
	tokens  *security.TokenService
	failure types.FailureHandler
	logger  types.Logger
}

func NewAdminHandlers(tokens *security.TokenService, failure types.FailureHandler, logger types.Logger) *AdminHandlers {
	return &AdminHandlers{
		tokens:  tokens,
		failure: failure,
		logger:  logger,
	}
}

func (h *AdminHandlers) Register(router *Router) error {
	admin := router.Group("/admin/api")

	errs := []error{
		admin.POST("/login", h.Login),
		admin.POST("/logout", h.Logout),
		admin.POST("/refresh", h.Refresh),
		admin.GET("/users/profile", h.Profile),
		admin.POST("/comments", h.Comment),
		router.POST("/api/comments", h.Comment),
	}

	return errors.Join(errs...)
}

func (h *AdminHandlers) Login(ctx *fasthttp.RequestCtx) {
	var req LoginRequest
	if err := utils.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.CreateBadRequestResponse(ctx, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.CreateBadRequestResponse(ctx, "username and password are required")
		return
	}

	token, err := h.tokens.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.logger.Info("Admin logged in", zap.String("username", req.Username))

	utils.SetNoCacheHeaders(ctx)
	utils.RespondJSON(ctx, fasthttp.StatusOK, token)
}

func (h *AdminHandlers) Logout(ctx *fasthttp.RequestCtx) {
	user, ok := filter.CurrentUser(ctx)
	if !ok {
		h.failure.Handle(ctx, types.NewAuthenticationError(types.ErrTokenMissing, "logout requires a session"))
		return
	}

	if err := h.tokens.Revoke(user.ID); err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.SetNoCacheHeaders(ctx)
	utils.RespondJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"status": fasthttp.StatusOK})
}

func (h *AdminHandlers) Refresh(ctx *fasthttp.RequestCtx) {
	refreshToken := string(ctx.QueryArgs().Peek("refresh_token"))

	token, err := h.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	utils.SetNoCacheHeaders(ctx)
	utils.RespondJSON(ctx, fasthttp.StatusOK, token)
}

func (h *AdminHandlers) Profile(ctx *fasthttp.RequestCtx) {
	user, ok := filter.CurrentUser(ctx)
	if !ok {
		h.failure.Handle(ctx, types.NewAuthenticationError(types.ErrTokenMissing, "profile requires a session"))
		return
	}

	utils.SetNoCacheHeaders(ctx)
	utils.RespondJSON(ctx, fasthttp.StatusOK, user)
}

// Comment echoes the posted content with the author resolved by the admin
// filter. Try-auth requests without a session post as anonymous.
func (h *AdminHandlers) Comment(ctx *fasthttp.RequestCtx) {
	var req CommentRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := utils.Unmarshal(body, &req); err != nil {
			utils.CreateBadRequestResponse(ctx, "invalid request body")
			return
		}
	}

	author := anonymousAuthor
	if user, ok := filter.CurrentUser(ctx); ok {
		author = user.Nickname
		if author == "" {
			author = user.Username
		}
	}

	utils.RespondJSON(ctx, fasthttp.StatusOK, CommentResponse{Author: author, Content: req.Content})
}

func (h *AdminHandlers) respondError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, types.ErrBadCredentials) {
		utils.SetNoCacheHeaders(ctx)
		utils.RespondJSON(ctx, fasthttp.StatusUnauthorized, map[string]interface{}{
			"status":  fasthttp.StatusUnauthorized,
			"message": "Invalid username or password",
		})
		return
	}

	var authErr *types.AuthenticationError
	if !errors.As(err, &authErr) {
		authErr = types.NewAuthenticationError(err, "")
	}
	h.failure.Handle(ctx, authErr)
}
