package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/srxprov/srxprov/pkg/provision"
	"github.com/srxprov/srxprov/pkg/util"
)

type configureRequest struct {
	Device string `json:"device"`
	provision.ConfigIntent
}

type configureResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Outcome *provision.Outcome `json:"outcome,omitempty"`
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Device == "" {
		writeError(w, http.StatusBadRequest, "device is required")
		return
	}

	outcome, err := s.exec.Run(r.Context(), req.Device, req.ConfigIntent)
	if err != nil {
		// Pre-flight rejection: malformed intent or unknown device;
		// no transport was touched.
		status := http.StatusBadRequest
		if !errors.Is(err, util.ErrInvalidIntent) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	resp := configureResponse{
		Success: outcome.Committed(),
		Outcome: outcome,
	}
	if resp.Success {
		resp.Message = "Configuration applied successfully"
	} else {
		resp.Message = "Configuration failed at step " + outcome.FailedStep()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	if device == "" {
		writeError(w, http.StatusBadRequest, "device query parameter is required")
		return
	}

	facts, err := s.exec.Status(r.Context(), device)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected":   true,
		"device_info": facts,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	outcomes, err := s.store.Recent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if outcomes == nil {
		outcomes = []*provision.Outcome{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": outcomes,
		"count":   len(outcomes),
	})
}

type backupRequest struct {
	Device string `json:"device"`
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Device == "" {
		writeError(w, http.StatusBadRequest, "device is required")
		return
	}

	export, err := s.exec.Backup(r.Context(), req.Device)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Backup failed: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Configuration backup created successfully",
		"backup": map[string]interface{}{
			"device":        req.Device,
			"timestamp":     time.Now().Format(time.RFC3339),
			"configuration": export,
		},
	})
}

type rollbackRequest struct {
	Device     string `json:"device"`
	SnapshotID int    `json:"snapshot_id"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Device == "" {
		writeError(w, http.StatusBadRequest, "device is required")
		return
	}

	if err := s.exec.Rollback(r.Context(), req.Device, req.SnapshotID); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Rollback failed: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Rolled back to snapshot " + strconv.Itoa(req.SnapshotID),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Errorf("Encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
