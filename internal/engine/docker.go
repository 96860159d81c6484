// Package engine adapts the Docker Engine API to the manager's Engine interface.
package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	dockerfilters "github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"

	"runtimed/internal/manager"
)

var _ manager.Engine = (*Docker)(nil)

// Docker implements manager.Engine using the Docker Engine API.
type Docker struct {
	cli client.APIClient
	log zerolog.Logger
}

// NewDocker creates a Docker engine with a client configured from the
// environment (DOCKER_HOST, DOCKER_CERT_PATH, ...).
func NewDocker(log zerolog.Logger) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return NewDockerFromClient(cli, log), nil
}

// NewDockerFromClient wraps an existing client.
func NewDockerFromClient(cli client.APIClient, log zerolog.Logger) *Docker {
	return &Docker{cli: cli, log: log.With().Str("component", "engine").Logger()}
}

// Client returns the underlying API client.
func (d *Docker) Client() client.APIClient { return d.cli }

func (d *Docker) Close() error { return d.cli.Close() }

// WaitReady blocks until the daemon answers a ping.
func (d *Docker) WaitReady(ctx context.Context) error {
	return WaitReady(ctx, d.cli, d.log)
}

func (d *Docker) ListContainers(ctx context.Context, f manager.ContainerFilter) ([]manager.ContainerSummary, error) {
	cs, err := d.cli.ContainerList(ctx, container.ListOptions{All: f.All, Filters: listFilters(f)})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	out := make([]manager.ContainerSummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, summaryFromAPI(c))
	}
	return out, nil
}

func (d *Docker) InspectContainer(ctx context.Context, id string) (manager.ContainerRecord, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return manager.ContainerRecord{}, wrapErr("inspect container "+id, err)
	}
	return recordFromInspect(info), nil
}

func (d *Docker) CreateContainer(ctx context.Context, spec manager.CreateSpec) (string, error) {
	cc, hc, platform, err := createConfig(spec)
	if err != nil {
		return "", err
	}
	resp, err := d.cli.ContainerCreate(ctx, cc, hc, nil, platform, spec.Name)
	if err != nil {
		return "", wrapErr(fmt.Sprintf("create container %q", spec.Name), err)
	}
	for _, w := range resp.Warnings {
		d.log.Warn().Str("container", spec.Name).Msg(w)
	}
	return resp.ID, nil
}

func (d *Docker) StartContainer(ctx context.Context, id string) error {
	if err := d.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return wrapErr("start container "+id, err)
	}
	return nil
}

// StopContainer treats an already stopped container as success.
func (d *Docker) StopContainer(ctx context.Context, id string) error {
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		if errdefs.IsNotModified(err) {
			return nil
		}
		return wrapErr("stop container "+id, err)
	}
	return nil
}

// RemoveContainer treats a missing container as success.
func (d *Docker) RemoveContainer(ctx context.Context, id string, force bool) error {
	if err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove container %s: %w", id, err)
	}
	return nil
}

func (d *Docker) ImageExists(ctx context.Context, ref string) (bool, error) {
	args := dockerfilters.NewArgs(dockerfilters.Arg("reference", ref))
	imgs, err := d.cli.ImageList(ctx, image.ListOptions{Filters: args})
	if err != nil {
		return false, fmt.Errorf("list images: %w", err)
	}
	return len(imgs) > 0, nil
}

func (d *Docker) PullImage(ctx context.Context, ref, platform string) (io.ReadCloser, error) {
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{Platform: platform})
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("pull image %q", ref), err)
	}
	return rc, nil
}

func wrapErr(op string, err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%s: %w: %w", op, manager.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func listFilters(f manager.ContainerFilter) dockerfilters.Args {
	args := dockerfilters.NewArgs()
	if f.Name != "" {
		args.Add("name", f.Name)
	}
	if f.Ancestor != "" {
		args.Add("ancestor", f.Ancestor)
	}
	return args
}

func runState(status string) manager.RunState {
	switch status {
	case "running":
		return manager.RunStateRunning
	case "created":
		return manager.RunStateCreated
	case "":
		return manager.RunStateAbsent
	default:
		return manager.RunStateExited
	}
}

func summaryFromAPI(c container.Summary) manager.ContainerSummary {
	seen := make(map[int]bool)
	var ports []int
	for _, p := range c.Ports {
		hp := int(p.PublicPort)
		if hp > 0 && !seen[hp] {
			seen[hp] = true
			ports = append(ports, hp)
		}
	}
	sort.Ints(ports)
	return manager.ContainerSummary{
		ID:             c.ID,
		Names:          c.Names,
		State:          runState(string(c.State)),
		PublishedPorts: ports,
	}
}

// recordFromInspect reads tcp bindings from the live network settings, falling
// back to the configured bindings for containers that are not running.
func recordFromInspect(info container.InspectResponse) manager.ContainerRecord {
	rec := manager.ContainerRecord{RunState: manager.RunStateAbsent}
	if info.ContainerJSONBase != nil {
		rec.ID = info.ID
		rec.Name = strings.TrimPrefix(info.Name, "/")
		if info.State != nil {
			rec.RunState = runState(string(info.State.Status))
		}
	}
	var pm nat.PortMap
	if info.NetworkSettings != nil {
		pm = info.NetworkSettings.Ports
	}
	rec.Bindings = bindingsFrom(pm)
	if len(rec.Bindings) == 0 && info.ContainerJSONBase != nil && info.HostConfig != nil {
		rec.Bindings = bindingsFrom(info.HostConfig.PortBindings)
	}
	return rec
}

func bindingsFrom(pm nat.PortMap) map[int]int {
	out := make(map[int]int)
	for port, bs := range pm {
		if port.Proto() != "tcp" {
			continue
		}
		for _, b := range bs {
			hp, err := strconv.Atoi(b.HostPort)
			if err == nil && hp > 0 {
				out[port.Int()] = hp
				break
			}
		}
	}
	return out
}

func createConfig(spec manager.CreateSpec) (*container.Config, *container.HostConfig, *ocispec.Platform, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(spec.ContainerPort))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("container port %d: %w", spec.ContainerPort, err)
	}
	platform, err := parsePlatform(spec.Platform)
	if err != nil {
		return nil, nil, nil, err
	}
	cc := &container.Config{
		Image:        spec.Image,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	hc := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: spec.HostIP, HostPort: strconv.Itoa(spec.HostPort)}},
		},
	}
	for _, m := range spec.Mounts {
		hc.Mounts = append(hc.Mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: m.Source,
			Target: m.Target,
		})
	}
	return cc, hc, platform, nil
}

// parsePlatform parses os/arch[/variant]. An empty string selects the daemon default.
func parsePlatform(s string) (*ocispec.Platform, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid platform %q, want os/arch[/variant]", s)
	}
	p := &ocispec.Platform{OS: parts[0], Architecture: parts[1]}
	if len(parts) == 3 {
		p.Variant = parts[2]
	}
	return p, nil
}
