package failure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

// FailureContext is captured once at assembly time and shared by every
// response a handler writes.
type FailureContext struct {
	ProductionEnv bool
	Codec         types.Codec
}

type ErrorResponse struct {
	Status     int             `json:"status"`
	Kind       types.ErrorKind `json:"kind"`
	Message    string          `json:"message"`
	Data       interface{}     `json:"data,omitempty"`
	DevMessage string          `json:"dev_message,omitempty"`
}

var genericMessages = map[types.ErrorKind]string{
	types.KindTokenMissing:          "Authentication required, please log in",
	types.KindTokenExpiredOrInvalid: "Token expired or invalid, please log in again",
	types.KindInsufficientPrivilege: "Insufficient privilege for this resource",
	types.KindApiDisabled:           "API access is disabled",
	types.KindStoreUnavailable:      "Service temporarily unavailable",
	types.KindInternalError:         "An unexpected error occurred",
}

// Handler writes the terminal JSON response for a rejected request.
type Handler struct {
	name                 string
	context              FailureContext
	logger               types.Logger
	distinguishPrivilege bool
}

// NewDefaultHandler reports privilege failures as TokenExpiredOrInvalid.
func NewDefaultHandler(fc FailureContext, logger types.Logger) *Handler {
	return newHandler("default", fc, logger, false)
}

func NewAdminHandler(fc FailureContext, logger types.Logger) *Handler {
	return newHandler("admin", fc, logger, true)
}

func newHandler(name string, fc FailureContext, logger types.Logger, distinguishPrivilege bool) *Handler {
	if fc.Codec == nil {
		fc.Codec = utils.SonicCodec{}
	}

	return &Handler{
		name:                 name,
		context:              fc,
		logger:               logger,
		distinguishPrivilege: distinguishPrivilege,
	}
}

func (h *Handler) Name() string {
	return h.name
}

func (h *Handler) Handle(ctx *fasthttp.RequestCtx, err error) {
	response := h.Build(err)

	h.logger.Debug("Authentication failure",
		zap.String("handler", h.name),
		zap.String("kind", string(response.Kind)),
		zap.Int("status", response.Status),
		zap.ByteString("path", ctx.Path()),
		zap.Error(err))

	body, marshalErr := h.context.Codec.Marshal(response)
	if marshalErr != nil {
		h.logger.Error("Failed to encode failure response", zap.Error(marshalErr))
		utils.CreateErrorResponse(ctx)
		return
	}

	utils.SetNoCacheHeaders(ctx)
	utils.WriteJSON(ctx, response.Status, body)
}

// Build maps err onto the response body without writing it.
func (h *Handler) Build(err error) ErrorResponse {
	kind, status, data := describe(err)

	if kind == types.KindInsufficientPrivilege && !h.distinguishPrivilege {
		kind, status = types.KindTokenExpiredOrInvalid, http.StatusUnauthorized
	}

	response := ErrorResponse{
		Status:  status,
		Kind:    kind,
		Message: genericMessages[kind],
	}

	if h.context.ProductionEnv {
		return response
	}

	if err != nil {
		response.Message = err.Error()
		response.DevMessage = devMessage(err)
	}
	response.Data = data

	return response
}

func describe(err error) (types.ErrorKind, int, interface{}) {
	var authErr *types.AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Kind, authErr.Status, authErr.Data
	}

	kind, status := types.ClassifyError(err)
	return kind, status, nil
}

func devMessage(err error) string {
	var authErr *types.AuthenticationError
	if errors.As(err, &authErr) {
		if cause := authErr.Unwrap(); cause != nil {
			return fmt.Sprintf("%+v", cause)
		}
	}
	return fmt.Sprintf("%+v", err)
}
