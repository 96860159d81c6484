package manager

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

const identityHashLen = 12

// ImageReference is a parsed image reference. Raw keeps the configured string
// since the container identity is derived from it verbatim.
type ImageReference struct {
	Raw    string
	Name   string
	Tag    string
	Digest string
}

// PullRef is the reference handed to the engine for pulling.
func (r ImageReference) PullRef() string {
	if r.Digest != "" {
		return r.Name + "@" + r.Digest
	}
	return r.Name + ":" + r.Tag
}

func (r ImageReference) String() string { return r.Raw }

// ParseImageReference parses name[:tag][@digest]. The tag defaults to latest.
func ParseImageReference(s string) (ImageReference, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return ImageReference{}, configError("image reference is missing")
	}
	named, err := reference.ParseNormalizedNamed(raw)
	if err != nil {
		return ImageReference{}, configError("invalid image reference %q: %v", raw, err)
	}
	ref := ImageReference{Raw: raw, Name: reference.FamiliarName(named)}
	if d, ok := named.(reference.Digested); ok {
		ref.Digest = d.Digest().String()
	}
	if t, ok := named.(reference.Tagged); ok {
		ref.Tag = t.Tag()
	} else if ref.Digest == "" {
		ref.Tag = "latest"
	}
	return ref, nil
}

// ContainerIdentity is the deterministic identity of the managed container.
type ContainerIdentity struct {
	Name string
	Hash string
}

// ImageHash returns the first 12 hex chars of sha256(image).
func ImageHash(image string) string {
	sum := sha256.Sum256([]byte(image))
	return hex.EncodeToString(sum[:])[:identityHashLen]
}

// DeriveIdentity maps an image reference string to <prefix>-<hash>.
func DeriveIdentity(prefix, image string) ContainerIdentity {
	h := ImageHash(image)
	return ContainerIdentity{Name: fmt.Sprintf("%s-%s", prefix, h), Hash: h}
}
