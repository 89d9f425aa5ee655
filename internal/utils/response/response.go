package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/tiktok-downloader/internal/apperr"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// WriteError writes err with the status code of its classification.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperr.From(err)
	return WriteJSON(w, appErr.HTTPStatus(), GeneralError(appErr))
}

func GeneralError(err error) ErrorResponse {
	if appErr, ok := err.(*apperr.Error); ok {
		return ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Details(),
		}
	}
	return ErrorResponse{
		Error: err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var fields []string
	for _, err := range errs {
		fields = append(fields, err.Field()+": "+err.Tag())
	}

	return ErrorResponse{
		Error:   "invalid request",
		Details: strings.Join(fields, "; "),
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}
