package main

import (
	"encoding/json"
	"net/http"

	"akaza/model"
)

type convertRequest struct {
	Hiragana string `json:"hiragana"`
	KBest    int    `json:"k"`
}

type convertResponse struct {
	Segmentations [][]model.ClauseCandidates `json:"segmentations"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "akazad: invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	k := req.KBest
	if k <= 0 {
		k = 1
	}
	segs, err := s.engine.Convert(r.Context(), req.Hiragana, k)
	if err != nil {
		http.Error(w, "akazad: convert: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, convertResponse{Segmentations: segs})
}

type commitRequest struct {
	SegmentationIndex int `json:"segmentation_index"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "akazad: invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	paths := s.engine.AvailableSegmentations()
	if req.SegmentationIndex < 0 || req.SegmentationIndex >= len(paths) {
		http.Error(w, "akazad: segmentation_index out of range", http.StatusBadRequest)
		return
	}
	if err := s.engine.Commit(paths[req.SegmentationIndex]); err != nil {
		http.Error(w, "akazad: commit: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
