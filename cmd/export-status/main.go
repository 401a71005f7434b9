// export-status is a small read-only HTTP service over the upload record
// store, used to check what state an export reached.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	shared "github.com/fitsync/exporter/pkg"
	"github.com/fitsync/exporter/pkg/bootstrap"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.NewLogger("export-status")

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID
	}

	fsClient, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("firestore init: %v", err)
	}
	records := uploadrecord.NewFirestoreStore(fsClient)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/users/{userID}/records/{fileBaseName}", func(w http.ResponseWriter, req *http.Request) {
		userID := chi.URLParam(req, "userID")
		fileBaseName := chi.URLParam(req, "fileBaseName")

		rec, err := records.Get(req.Context(), userID, fileBaseName)
		if err != nil {
			logger.Error("Record lookup failed", "user_id", userID, "file", fileBaseName, "error", err)
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		if rec == nil {
			http.NotFound(w, req)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	logger.Info("Listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
