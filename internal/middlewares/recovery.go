package middlewares

import (
	"encoding/json"
	"net/http"

	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

// RecoveryMiddleware converts a panicking handler into a generic JSON
// error envelope so a raw stack trace never reaches the browser.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{"panic": r}).Error("Recovered from panic while handling request")
				w.Header().Set("Content-Type", "application/json; charset=UTF-8")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":   true,
					"message": "Error processing the request. Check the application log for more details.",
				})
			}
		}()

		next.ServeHTTP(w, req)
	})
}
