package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/platform"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// healthCheckTimeout bounds each component check.
const healthCheckTimeout = 3 * time.Second

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// AccessoryResponse is one accessory in /api/v1/accessories.
type AccessoryResponse struct {
	UUID        string `json:"uuid"`
	AID         uint64 `json:"aid"`
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Bound       bool   `json:"bound"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := s.checks[name](ctx)
			cancel()
			if err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListAccessories(w http.ResponseWriter, _ *http.Request) {
	bindings := s.platform.Bindings()
	out := make([]AccessoryResponse, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, accessoryResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessories": out, "count": len(out)})
}

func (s *Server) handleGetAccessory(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	for _, b := range s.platform.Bindings() {
		if b.UUID == uuid {
			writeJSON(w, http.StatusOK, accessoryResponse(b))
			return
		}
	}
	writeError(w, http.StatusNotFound, ErrCodeNotFound, "accessory not found")
}

func accessoryResponse(b platform.Binding) AccessoryResponse {
	return AccessoryResponse{
		UUID:        b.UUID,
		AID:         accessory.AIDFor(b.UUID),
		ExternalID:  b.ExternalID,
		DisplayName: b.DisplayName,
		Category:    b.Category.String(),
		Bound:       b.Bound,
	}
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices, ok := s.poller.Devices.Value()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "no devices snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

func (s *Server) handleListAppliances(w http.ResponseWriter, _ *http.Request) {
	appliances, ok := s.appliances()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "no appliances snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appliances": appliances, "count": len(appliances)})
}

// handleRefresh polls both resources and reports the snapshot sizes.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("refresh requested over HTTP")
	s.poller.Refresh(r.Context())

	devices, _ := s.poller.Devices.Value()
	appliances, _ := s.appliances()
	writeJSON(w, http.StatusOK, map[string]int{
		"devices":    len(devices),
		"appliances": len(appliances),
	})
}

// appliances joins the aircon and IR snapshots.
func (s *Server) appliances() ([]remo.Appliance, bool) {
	aircons, okA := s.poller.Aircons.Value()
	irs, okI := s.poller.IRs.Value()
	if !okA && !okI {
		return nil, false
	}
	out := make([]remo.Appliance, 0, len(aircons)+len(irs))
	out = append(out, aircons...)
	return append(out, irs...), true
}

func (s *Server) broadcastAppliances() {
	if appliances, ok := s.appliances(); ok {
		s.hub.Broadcast(ChannelAppliances, appliances)
	}
}

// snapshot returns the current payload of a WebSocket channel.
func (s *Server) snapshot(channel string) (any, bool) {
	switch channel {
	case ChannelDevices:
		devices, ok := s.poller.Devices.Value()
		return devices, ok
	case ChannelAppliances:
		return s.appliances()
	}
	return nil, false
}
