package handler

import (
	"net/http"

	"court-order-server/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()
	logger := container.GetLogger()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "court-order-server"})
	}).Methods(http.MethodGet)

	documentHandler := NewDocumentHandler(container)
	qaHandler := NewQAHandler(container)
	chatHandler := NewChatHandler(container)

	routes := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/process-document", documentHandler.ProcessDocument},
		{"/process-document-complete", documentHandler.ProcessDocumentComplete},
		{"/extract-pdf", documentHandler.ExtractPDF},
		{"/qa-query", qaHandler.Query},
		{"/chat", chatHandler.Chat},
		{"/legal-assistant", chatHandler.LegalAssistant},
	}
	// The UI calls both the bare paths and the /api prefix.
	for _, route := range routes {
		router.HandleFunc(route.path, route.handler).Methods(http.MethodPost)
		router.HandleFunc("/api"+route.path, route.handler).Methods(http.MethodPost)
	}

	// Wrapped outside the router so unmatched requests are logged and tagged too.
	var handler http.Handler = router
	handler = RecoverMiddleware(logger)(handler)
	handler = AccessLogMiddleware(logger)(handler)
	handler = RequestIDMiddleware(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: container.GetConfig().GetAllowedOrigins(),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
		},
		MaxAge: 300,
	})

	return c.Handler(handler)
}
