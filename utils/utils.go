package utils

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
)

func GetUUID() string {
	return uuid.New().String()
}

// Geohash encodes coordinates with the standard 12-character precision.
func Geohash(lat, lng float64) string {
	return geohash.Encode(lat, lng)
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

type M map[string]interface{}
