package types

import "testing"

func TestEndpointsFor(t *testing.T) {
	e := EndpointsFor(3104)
	if e.Local != "http://127.0.0.1:3104" {
		t.Fatalf("local=%q", e.Local)
	}
	if e.TTS != "http://127.0.0.1:3104/tts" {
		t.Fatalf("tts=%q", e.TTS)
	}
	if e.DownloadWS != "ws://127.0.0.1:3104/ws/download-model" {
		t.Fatalf("download_ws=%q", e.DownloadWS)
	}
}
