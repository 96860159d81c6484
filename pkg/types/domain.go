package types

import "strconv"

// InstallStatus reports whether the container engine is present and its
// daemon reachable.
type InstallStatus struct {
	// True when the engine CLI or daemon was found.
	// example: true
	Installed bool `json:"installed" example:"true"`
	// True when the engine daemon answered.
	// example: true
	Running bool `json:"running" example:"true"`
}

// Endpoints are the runtime URLs derived from the bound host port.
type Endpoints struct {
	// Base URL of the runtime API.
	// example: http://127.0.0.1:3100
	Local string `json:"local" example:"http://127.0.0.1:3100"`
	// Text-to-speech endpoint.
	// example: http://127.0.0.1:3100/tts
	TTS string `json:"tts" example:"http://127.0.0.1:3100/tts"`
	// WebSocket endpoint for model downloads.
	// example: ws://127.0.0.1:3100/ws/download-model
	DownloadWS string `json:"download_ws" example:"ws://127.0.0.1:3100/ws/download-model"`
}

// EndpointsFor derives the loopback runtime URLs for port.
func EndpointsFor(port int) Endpoints {
	local := "http://127.0.0.1:" + strconv.Itoa(port)
	return Endpoints{
		Local:      local,
		TTS:        local + "/tts",
		DownloadWS: "ws://127.0.0.1:" + strconv.Itoa(port) + "/ws/download-model",
	}
}
