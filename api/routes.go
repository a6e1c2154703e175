package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(h *Handler) http.Handler {
	router := mux.NewRouter()
	router.Use(instrument)

	// Codec endpoints
	router.HandleFunc("/geohash/encode", h.Encode).Methods("GET")
	router.HandleFunc("/geohash/{hash}", h.Decode).Methods("GET")
	router.HandleFunc("/geohash/{hash}/bbox", h.Bbox).Methods("GET")
	router.HandleFunc("/geohash/{hash}/neighbors", h.Neighbors).Methods("GET")
	router.HandleFunc("/geohash/{hash}/neighbors/{direction}", h.Neighbor).Methods("GET")

	// Place endpoints
	router.HandleFunc("/places", h.CreatePlace).Methods("POST")
	router.HandleFunc("/places/nearby", h.NearbyPlaces).Methods("GET")
	router.HandleFunc("/places/{id:[0-9]+}", h.GetPlace).Methods("GET")
	router.HandleFunc("/places/{id:[0-9]+}", h.DeletePlace).Methods("DELETE")

	router.HandleFunc("/healthz", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return cors(handlers.RecoveryHandler()(router))
}
