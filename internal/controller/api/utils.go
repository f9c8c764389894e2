package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/go-playground/validator/v10"
)

const unexpectedErrorMessage = "Error processing the request. Check the application log for more details."

// errorResponse is the error envelope shape used throughout the API.
type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Unable to encode payload!", http.StatusUnprocessableEntity)
		logger.Log.Error("Unable to encode payload!")
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, message string, code string) {
	writeJSONResponse(w, status, errorResponse{Error: true, Message: message, Code: code})
}

func decodeJSON(body io.ReadCloser, data interface{}) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(&data); err != nil {
		return errors.New("Request body includes malformed json")
	}

	v := validator.New()
	if err := v.Struct(data); err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			logger.Log.Debug(e)
		}
		return errors.New("Request body is missing required fields")
	} else if dec.More() {
		return errors.New("Request body must only contain one json object")
	}

	return nil
}
