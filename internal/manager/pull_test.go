package manager

import (
	"testing"

	"github.com/docker/docker/pkg/jsonmessage"
)

func layer(id, status string, cur, total int64) jsonmessage.JSONMessage {
	return jsonmessage.JSONMessage{ID: id, Status: status, Progress: &jsonmessage.JSONProgress{Current: cur, Total: total}}
}

func TestProgressTracker_MeanOverKnownTotals(t *testing.T) {
	tr := newProgressTracker()
	if p, ok := tr.observe(layer("a", "Downloading", 50, 100)); !ok || p != 50 {
		t.Fatalf("p=%d ok=%v", p, ok)
	}
	// unknown total is excluded rather than counted as zero
	if p, _ := tr.observe(layer("b", "Downloading", 0, 0)); p != 50 {
		t.Fatalf("p=%d want 50", p)
	}
	if p, _ := tr.observe(layer("b", "Downloading", 100, 100)); p != 75 {
		t.Fatalf("p=%d want 75", p)
	}
}

func TestProgressTracker_NonDecreasing(t *testing.T) {
	tr := newProgressTracker()
	msgs := []jsonmessage.JSONMessage{
		layer("a", "Downloading", 90, 100),
		layer("b", "Downloading", 1, 100),
		layer("a", "Extracting", 5, 100),
		layer("b", "Downloading", 100, 100),
		layer("a", "Extracting", 100, 100),
	}
	last := -1
	for i, m := range msgs {
		p, ok := tr.observe(m)
		if !ok {
			t.Fatalf("msg %d ignored", i)
		}
		if p < last {
			t.Fatalf("progress decreased at %d: %d < %d", i, p, last)
		}
		last = p
	}
	if last != 100 {
		t.Fatalf("final=%d", last)
	}
}

func TestProgressTracker_IgnoresOtherMessages(t *testing.T) {
	tr := newProgressTracker()
	for _, m := range []jsonmessage.JSONMessage{
		{Status: "Pulling from voicestudio/model-library", ID: "latest"},
		{ID: "a", Status: "Pulling fs layer"},
		{ID: "a", Status: "Verifying Checksum"},
		{Status: "Downloading"},
		{Status: "Digest: sha256:abc"},
	} {
		if _, ok := tr.observe(m); ok {
			t.Fatalf("message %+v counted as progress", m)
		}
	}
}

func TestProgressTracker_RoundsAndCaps(t *testing.T) {
	tr := newProgressTracker()
	if p, _ := tr.observe(layer("a", "Downloading", 1, 3)); p != 33 {
		t.Fatalf("p=%d want 33", p)
	}
	if p, _ := tr.observe(layer("a", "Downloading", 500, 100)); p != 100 {
		t.Fatalf("p=%d want 100", p)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("got %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
