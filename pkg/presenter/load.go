package presenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/models"
	"github.com/plinth3d/plinth/pkg/resolver"
	"github.com/plinth3d/plinth/pkg/scene"
)

// LoadOptions tunes one LoadScene call.
type LoadOptions struct {
	// PreserveCamera keeps the current camera pose across the reload.
	// Scene extents are still recomputed for ground sizing.
	PreserveCamera bool
	// AllowPartial attaches the models that loaded even when others
	// failed. The default contract is all-or-nothing.
	AllowPartial bool
}

// ModelResult is the per-model outcome of a load: a node plus stats,
// or a typed error.
type ModelResult struct {
	Node  *models.Node
	Stats models.Stats
	Err   error
}

// Result reports what a LoadScene call produced. Every model in the
// description has an entry in Models regardless of outcome.
type Result struct {
	Models map[string]ModelResult
	// ComputedPositions holds the auto-placement applied to models that
	// carried no explicit position, rounded to 3 decimals. Writing them
	// back into the description is the caller's decision.
	ComputedPositions map[string]math3d.Vec3
}

// LoadScene loads every model in the description concurrently and
// replaces the presenter's node set. All models are fetched and decoded
// to completion before anything is attached; if any fails and
// AllowPartial is off, nothing is attached and the returned error names
// the failed models. A call superseded by a newer LoadScene discards
// its results and returns ErrSuperseded.
func (p *Presenter) LoadScene(ctx context.Context, desc *scene.Description, opts LoadOptions) (*Result, error) {
	if p.disposed.Load() {
		return nil, ErrDisposed
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	gen := p.gen.Add(1)

	// Fan out one goroutine per model; each settles into its own slot.
	outcomes := make([]ModelResult, len(desc.Models))
	var wg sync.WaitGroup
	for i := range desc.Models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = p.loadModel(ctx, &desc.Models[i], desc)
		}(i)
	}
	wg.Wait()

	if p.gen.Load() != gen {
		return nil, ErrSuperseded
	}

	res := &Result{
		Models:            make(map[string]ModelResult, len(desc.Models)),
		ComputedPositions: make(map[string]math3d.Vec3),
	}
	var failed []error
	for i := range desc.Models {
		res.Models[desc.Models[i].ID] = outcomes[i]
		if outcomes[i].Err != nil {
			failed = append(failed, outcomes[i].Err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed.Load() {
		return nil, ErrDisposed
	}
	// A newer load may have started and fully finished while this one
	// waited for the lock; its scene must stay attached.
	if p.gen.Load() != gen {
		return nil, ErrSuperseded
	}

	// The previous scene always comes down first, matching the
	// all-or-nothing contract: a failed load leaves nothing attached.
	for id := range p.nodes {
		p.engine.Detach(id)
	}
	p.nodes = make(map[string]*models.Node)
	p.stats = make(map[string]models.Stats)
	p.visibility = make(map[string]bool)
	p.poses = make(map[string]nodePose)
	p.extents = math3d.EmptyBox3()

	if len(failed) > 0 && !opts.AllowPartial {
		return res, errors.Join(failed...)
	}

	for i := range desc.Models {
		def := &desc.Models[i]
		out := outcomes[i]
		if out.Err != nil {
			continue
		}
		p.nodes[def.ID] = out.Node
		p.stats[def.ID] = out.Stats
		p.visibility[def.ID] = out.Node.Visible
		_, rot, scl := resolvePose(def, desc.RotationUnits)
		p.poses[def.ID] = nodePose{rotation: rot, scale: scl}
		p.engine.Attach(def.ID, out.Node)
	}

	p.applyEnvironmentLocked(ctx, desc, gen)
	p.frameLocked(desc, res, opts.PreserveCamera)

	if len(failed) > 0 {
		return res, errors.Join(failed...)
	}
	return res, nil
}

// loadModel runs the full per-model pipeline: format dispatch, URL
// resolution, fetch, decode, transform. Errors are wrapped with the
// model id so they stay attributable after joining.
func (p *Presenter) loadModel(ctx context.Context, def *scene.ModelDefinition, desc *scene.Description) ModelResult {
	fail := func(err error) ModelResult {
		return ModelResult{Err: fmt.Errorf("model %q: %w", def.ID, err)}
	}

	format, err := scene.FormatForFile(def.File)
	if err != nil {
		return fail(err)
	}
	url, err := p.resolver.Resolve(def.File, resolver.Context{ProjectID: desc.ProjectID})
	if err != nil {
		return fail(err)
	}
	data, err := p.fetch(ctx, url)
	if err != nil {
		return fail(err)
	}

	name := def.Title
	if name == "" {
		name = def.ID
	}
	node, err := models.Load(format, data, models.LoadOptions{
		Name:     name,
		Material: def.Material,
		Decoder:  p.decoder,
	})
	if err != nil {
		return fail(err)
	}

	node.Transform = modelTransform(def, desc.RotationUnits)
	node.Visible = def.IsVisible()
	return ModelResult{Node: node, Stats: models.ComputeStats(node)}
}

// applyEnvironmentLocked pushes background, ground visibility, and
// head light settings to the engine, and kicks off the fire-and-forget
// environment map fetch.
func (p *Presenter) applyEnvironmentLocked(ctx context.Context, desc *scene.Description, gen uint64) {
	env := desc.Environment
	if env == nil {
		return
	}

	if env.Background != "" {
		if c, err := scene.ParseColor(env.Background); err == nil {
			p.engine.SetBackground(c)
		} else {
			p.log.Warn("invalid background color", "value", env.Background)
		}
	}
	if env.HeadLightOffset != nil {
		p.headLightOffset = *env.HeadLightOffset
	}
	p.engine.SetHeadLight(p.headLight, p.headLightOffset)

	if env.EnvMap != "" {
		// Environment maps never gate scene readiness; failures are
		// logged and the scene renders without one.
		go p.loadEnvMap(ctx, env.EnvMap, desc.ProjectID, gen)
	}
}

func (p *Presenter) loadEnvMap(ctx context.Context, file, projectID string, gen uint64) {
	url, err := p.resolver.Resolve(file, resolver.Context{ProjectID: projectID})
	if err == nil {
		var data []byte
		if data, err = p.fetch(ctx, url); err == nil {
			var img image.Image
			if img, _, err = image.Decode(bytes.NewReader(data)); err == nil {
				if p.gen.Load() == gen && !p.disposed.Load() {
					p.engine.SetEnvMap(&models.Texture{Name: file, Image: img})
				}
				return
			}
		}
	}
	p.log.Warn("environment map load failed", "file", file, "error", err)
}

// httpFetcher adapts an HTTP client to a FetchFunc; non-2xx responses
// become FetchErrors.
func httpFetcher(client *http.Client) FetchFunc {
	return func(ctx context.Context, url string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &FetchError{URL: url, Status: resp.StatusCode}
		}
		return io.ReadAll(resp.Body)
	}
}

// LoadedModelIDs returns the ids of the currently attached models,
// sorted for deterministic iteration.
func (p *Presenter) LoadedModelIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
