package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/x10-bridge/internal/bridges/x10"
)

// DeviceResponse describes one registered device.
type DeviceResponse struct {
	ID    string `json:"id"`
	House string `json:"house"`
	Unit  int    `json:"unit"`
}

// DeviceListResponse is the body of GET /devices.
type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Count   int              `json:"count"`
}

func toDeviceResponse(id x10.DeviceID) DeviceResponse {
	return DeviceResponse{
		ID:    id.String(),
		House: id.House().String(),
		Unit:  id.Unit(),
	}
}

// handleListDevices returns every device the bridge has seen.
//
// Query parameters:
//   - house: restrict to one house code (A-P)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	registry := s.bridge.Registry()

	var ids []x10.DeviceID
	if v := r.URL.Query().Get("house"); v != "" {
		house, err := x10.ParseHouse(v)
		if err != nil {
			writeBadRequest(w, "invalid house code")
			return
		}
		ids = registry.InHouse(house)
	} else {
		ids = registry.List()
	}

	resp := DeviceListResponse{
		Devices: make([]DeviceResponse, 0, len(ids)),
		Count:   len(ids),
	}
	for _, id := range ids {
		resp.Devices = append(resp.Devices, toDeviceResponse(id))
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetDevice returns one device if it is registered.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := x10.ParseDeviceID(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return
	}

	if !s.bridge.Registry().Contains(id) {
		writeNotFound(w, "device not registered")
		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponse(id))
}
