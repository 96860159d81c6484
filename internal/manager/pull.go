package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/rs/zerolog"
)

const (
	layerDownloading = "Downloading"
	layerExtracting  = "Extracting"
)

type layerProgress struct {
	status  string
	current int64
	total   int64
}

// progressTracker aggregates per-layer progress into one percentage.
// Layers without a known total are excluded from the mean. The reported
// value never decreases within a session: a new layer or a switch from
// downloading to extracting would otherwise pull the mean down.
type progressTracker struct {
	layers map[string]layerProgress
	last   int
}

func newProgressTracker() *progressTracker {
	return &progressTracker{layers: make(map[string]layerProgress)}
}

// observe records msg and returns the aggregate percentage. ok is false for
// messages that do not describe layer download/extract progress.
func (t *progressTracker) observe(msg jsonmessage.JSONMessage) (pct int, ok bool) {
	if msg.ID == "" || (msg.Status != layerDownloading && msg.Status != layerExtracting) {
		return t.last, false
	}
	lp := layerProgress{status: msg.Status}
	if msg.Progress != nil {
		lp.current = msg.Progress.Current
		lp.total = msg.Progress.Total
	}
	t.layers[msg.ID] = lp

	var sum float64
	n := 0
	for _, l := range t.layers {
		if l.total <= 0 {
			continue
		}
		frac := float64(l.current) / float64(l.total)
		if frac > 1 {
			frac = 1
		}
		sum += frac
		n++
	}
	if n > 0 {
		if v := int(math.Round(100 * sum / float64(n))); v > t.last {
			t.last = v
		}
	}
	return t.last, true
}

// ImagePuller pulls the runtime image when it is not present locally.
type ImagePuller struct {
	engine   Engine
	emit     func(Event)
	log      zerolog.Logger
	platform string
}

// Ensure makes ref available locally. It reports whether a pull happened.
func (p *ImagePuller) Ensure(ctx context.Context, ref ImageReference, opID string) (bool, error) {
	event := func(status PullStatus) Event {
		return Event{Status: status, Image: ref.Raw, OpID: opID, Time: time.Now()}
	}

	exists, err := p.engine.ImageExists(ctx, ref.Raw)
	if err != nil {
		return false, opError(KindInspectFailed, "list images", err)
	}
	if exists {
		p.log.Info().Str("event", "image_exists").Str("image", ref.Raw).Msg("image already exists locally")
		p.emit(event(PullExists))
		return false, nil
	}

	p.log.Info().Str("event", "pull_start").Str("image", ref.PullRef()).Msg("image not found locally, pulling")
	started := event(PullStarted)
	started.Progress = intPtr(0)
	p.emit(started)

	if err := p.pull(ctx, ref, event); err != nil {
		failed := event(PullError)
		failed.Error = err.Error()
		p.emit(failed)
		p.log.Error().Str("event", "pull_error").Str("image", ref.PullRef()).Err(err).Msg("pull failed")
		return false, opError(KindPullFailed, "pull image", err)
	}

	done := event(PullCompleted)
	done.Progress = intPtr(100)
	p.emit(done)
	p.log.Info().Str("event", "pull_done").Str("image", ref.PullRef()).Msg("pull completed")
	return true, nil
}

func (p *ImagePuller) pull(ctx context.Context, ref ImageReference, event func(PullStatus) Event) error {
	rc, err := p.engine.PullImage(ctx, ref.PullRef(), p.platform)
	if err != nil {
		return err
	}
	defer rc.Close()

	tracker := newProgressTracker()
	dec := json.NewDecoder(rc)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read pull stream: %w", err)
		}
		if msg.Error != nil {
			return msg.Error
		}
		if msg.ErrorMessage != "" {
			return errors.New(msg.ErrorMessage)
		}
		pct, ok := tracker.observe(msg)
		if !ok {
			continue
		}
		e := event(PullDownloading)
		e.Progress = intPtr(pct)
		e.Details = fmt.Sprintf("%s layer %s", msg.Status, shortID(msg.ID))
		p.emit(e)
	}
}

func shortID(id string) string {
	if len(id) > identityHashLen {
		return id[:identityHashLen]
	}
	return id
}
