// Package response renders the JSON envelope every endpoint replies with:
// status, success, message, then data on success or error on failure. Map
// payloads have their keys normalised to snake_case before encoding.
package response

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

type envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func JSONOkResponse(w http.ResponseWriter, data any, message string, headers http.Header) error {
	return writeEnvelope(w, envelope{
		Status:  http.StatusOK,
		Success: true,
		Message: successMessage(message),
		Data:    snakeCasePayload(data),
	}, headers)
}

func JSONCreatedResponse(w http.ResponseWriter, data any, message string) error {
	return writeEnvelope(w, envelope{
		Status:  http.StatusCreated,
		Success: true,
		Message: successMessage(message),
		Data:    snakeCasePayload(data),
	}, nil)
}

func JSONErrorResponse(w http.ResponseWriter, err any, message string, status int, headers http.Header) error {
	if message == "" {
		message = "Request failed"
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return writeEnvelope(w, envelope{
		Status:  status,
		Success: false,
		Message: message,
		Error:   err,
	}, headers)
}

func successMessage(message string) string {
	if message == "" {
		return "Request successful"
	}
	return message
}

func writeEnvelope(w http.ResponseWriter, response envelope, headers http.Header) error {
	body, err := json.MarshalIndent(response, "", "\t")
	if err != nil {
		return err
	}
	body = append(body, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Status)
	w.Write(body)

	return nil
}

var camelBoundary = regexp.MustCompile("([a-z0-9])([A-Z])")

// snakeCasePayload rewrites map keys to snake_case, recursing into nested
// maps. Non-map payloads rely on their struct json tags and pass through.
func snakeCasePayload(data any) any {
	payload, ok := data.(map[string]any)
	if !ok {
		return data
	}

	converted := make(map[string]any, len(payload))
	for key, value := range payload {
		if nested, ok := value.(map[string]any); ok {
			value = snakeCasePayload(nested)
		}
		converted[strings.ToLower(camelBoundary.ReplaceAllString(key, "${1}_${2}"))] = value
	}

	return converted
}
