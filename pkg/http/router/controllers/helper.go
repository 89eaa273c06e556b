package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

type envelope map[string]any

func (api *routingAPI) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

var errorNames = []struct {
	kind error
	name string
}{
	{da.ErrSelectionExhausted, "SelectionExhaustedError"},
	{da.ErrInvalidSelection, "InvalidSelectionError"},
	{da.ErrInvalidStrategy, "InvalidStrategyError"},
	{da.ErrInvalidInput, "InvalidInputError"},
	{da.ErrNoMatch, "NoMatchError"},
	{da.ErrResolutionTimeout, "ResolutionTimeoutError"},
	{da.ErrRouteUnavailable, "RouteUnavailableError"},
	{da.ErrProvider, "ProviderError"},
	{da.ErrPathNotFound, "PathNotFoundError"},
	{da.ErrEmptyRoute, "EmptyRouteError"},
	{da.ErrArtifactNotFound, "NotFoundError"},
}

// errorName is the taxonomy name of err shown to clients.
func errorName(err error) string {
	for _, e := range errorNames {
		if errors.Is(err, e.kind) {
			return e.name
		}
	}
	return "InternalError"
}

func errorBody(err error, message string) envelope {
	return envelope{"error": envelope{
		"code":    errorName(err),
		"message": message,
		"stage":   string(usecases.StageOf(err)),
	}}
}

func (api *routingAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, err error, message string) {
	if writeErr := api.writeJSON(w, status, errorBody(err, message), nil); writeErr != nil {
		api.log.Error("write error response", zap.Error(writeErr), zap.String("request_id", util.RequestID(r.Context())))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *routingAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("internal server error", zap.Error(err), zap.String("method", r.Method),
		zap.String("url", r.URL.String()), zap.String("request_id", util.RequestID(r.Context())))
	api.errorResponse(w, r, http.StatusInternalServerError, err, util.MessageInternalServerError)
}

func (api *routingAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, err, err.Error())
}

func (api *routingAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, err, err.Error())
}

// statusOf maps the transport class of err to an http status.
func statusOf(err error) int {
	switch util.CodeOf(err) {
	case util.ErrBadParamInput:
		return http.StatusBadRequest
	case util.ErrNotFound:
		return http.StatusNotFound
	case util.ErrConflict:
		return http.StatusConflict
	case util.ErrUnprocessable:
		return http.StatusUnprocessableEntity
	case util.ErrBadGateway:
		return http.StatusBadGateway
	case util.ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	case util.ErrGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (api *routingAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		api.log.Info("request cancelled by client", zap.String("request_id", util.RequestID(r.Context())),
			zap.String("stage", string(usecases.StageOf(err))))
		return
	}

	status := statusOf(err)
	if status == http.StatusInternalServerError {
		api.ServerErrorResponse(w, r, err)
		return
	}

	api.log.Debug("request failed", zap.Int("status", status), zap.Error(err),
		zap.String("request_id", util.RequestID(r.Context())))
	api.errorResponse(w, r, status, err, err.Error())
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

// validateStruct runs the validator tags of request, failures are InvalidInput errors with english messages.
func validateStruct(request any) error {
	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		return util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "validation error: %v", vvString)
	}
	return nil
}
