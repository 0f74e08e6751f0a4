// Package presenter orchestrates the scene pipeline: it resolves and
// fetches model files, decodes them, resolves transforms, frames the
// camera, and exposes the serializable presentation state.
package presenter

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"sync/atomic"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/models"
	"github.com/plinth3d/plinth/pkg/render"
	"github.com/plinth3d/plinth/pkg/resolver"
	"github.com/plinth3d/plinth/pkg/scene"
)

// Presenter owns one presentation session on one engine. All fields
// are per-instance; two presenters never share controls, widget, or
// node state.
type Presenter struct {
	engine Engine
	log    *slog.Logger

	resolver resolver.FileResolver
	fetch    FetchFunc
	decoder  models.GeometryDecoder
	widgetFn WidgetFactory

	mu         sync.Mutex
	nodes      map[string]*models.Node
	stats      map[string]models.Stats
	visibility map[string]bool
	// poses keeps each model's resolved rotation and scale so partial
	// transform previews can substitute one component at a time.
	poses   map[string]nodePose
	extents math3d.Box3

	controls *OrbitControls
	widget   OrientationWidget

	headLight       bool
	headLightOffset [2]float64
	envLighting     bool
	homePose        cameraPose

	anim cameraAnimator

	gen      atomic.Uint64
	disposed atomic.Bool
}

// cameraPose is a camera position/target pair.
type cameraPose struct {
	Position math3d.Vec3
	Target   math3d.Vec3
}

// nodePose is the rotation/scale part of a model's transform.
type nodePose struct {
	rotation math3d.Vec3
	scale    math3d.Vec3
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithResolver sets the file resolver used for relative model paths.
func WithResolver(r resolver.FileResolver) Option {
	return func(p *Presenter) { p.resolver = r }
}

// WithFetcher replaces the HTTP fetcher, mainly for tests.
func WithFetcher(f FetchFunc) Option {
	return func(p *Presenter) { p.fetch = f }
}

// WithDecoder sets the geometry decoder for compressed primitives.
func WithDecoder(d models.GeometryDecoder) Option {
	return func(p *Presenter) { p.decoder = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Presenter) { p.log = l }
}

// WithWidgetFactory sets the orientation widget factory.
func WithWidgetFactory(f WidgetFactory) Option {
	return func(p *Presenter) { p.widgetFn = f }
}

// New creates a presenter driving the given engine.
func New(engine Engine, opts ...Option) *Presenter {
	p := &Presenter{
		engine:     engine,
		log:        slog.Default(),
		resolver:   &resolver.ProjectResolver{},
		nodes:      make(map[string]*models.Node),
		stats:      make(map[string]models.Stats),
		visibility: make(map[string]bool),
		poses:      make(map[string]nodePose),
		widgetFn:   func(*render.Camera) OrientationWidget { return noopWidget{} },
		headLight:  true,
		extents:    math3d.EmptyBox3(),
	}
	p.anim.init()
	for _, opt := range opts {
		opt(p)
	}
	if p.fetch == nil {
		p.fetch = HTTPFetcher()
	}
	return p
}

// HTTPFetcher returns the default fetcher: an HTTP client with a
// cookie jar, so fetches send session credentials the way a browser
// would.
func HTTPFetcher() FetchFunc {
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}
	return httpFetcher(client)
}

// Dispose releases the engine and all scene state. It is idempotent,
// safe on a never-loaded presenter, and safe concurrently with a
// render tick.
func (p *Presenter) Dispose() {
	if p.disposed.Swap(true) {
		return
	}
	p.mu.Lock()
	if p.widget != nil {
		p.widget.Dispose()
		p.widget = nil
	}
	for id := range p.nodes {
		p.engine.Detach(id)
	}
	p.nodes = make(map[string]*models.Node)
	p.stats = make(map[string]models.Stats)
	p.visibility = make(map[string]bool)
	p.poses = make(map[string]nodePose)
	p.controls = nil
	p.mu.Unlock()

	p.engine.Release()
}

// SetModelVisibility shows or hides one loaded model. Unknown ids are
// ignored.
func (p *Presenter) SetModelVisibility(id string, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node, ok := p.nodes[id]
	if !ok {
		return
	}
	node.Visible = visible
	p.visibility[id] = visible
}

// ModelVisibility returns a model's visibility, false for unknown ids.
func (p *Presenter) ModelVisibility(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visibility[id]
}

// ModelStats returns the statistics computed at load time.
func (p *Presenter) ModelStats(id string) (models.Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[id]
	return s, ok
}

// ApplyModelTransform previews a transform on a loaded model without
// persisting anything to the scene description. Nil arguments keep the
// corresponding component of the model's current transform.
func (p *Presenter) ApplyModelTransform(id string, pos, rot *[3]float64, scale *scene.ScaleSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	node, ok := p.nodes[id]
	if !ok {
		return
	}

	position := node.Transform.Translation()
	if pos != nil {
		position = math3d.V3(pos[0], pos[1], pos[2])
	}
	base := p.poses[id]
	if rot != nil {
		base.rotation = resolveRotation(*rot, scene.UnitsUnspecified, scene.UnitsUnspecified)
	}
	if scale != nil {
		base.scale = scale.Vec3()
	}
	p.poses[id] = base
	node.Transform = math3d.TRS(position, base.rotation, base.scale)
}

// ResetCamera animates the camera back to the auto-framed home pose.
func (p *Presenter) ResetCamera() {
	if p.disposed.Load() {
		return
	}
	p.anim.animateTo(p.homePose)
}

// ToggleHeadLight flips the camera-attached light.
func (p *Presenter) ToggleHeadLight() bool {
	p.mu.Lock()
	p.headLight = !p.headLight
	on := p.headLight
	offset := p.headLightOffset
	p.mu.Unlock()
	p.engine.SetHeadLight(on, offset)
	return on
}

// ToggleEnvLighting flips image-based environment lighting.
func (p *Presenter) ToggleEnvLighting() bool {
	p.mu.Lock()
	p.envLighting = !p.envLighting
	on := p.envLighting
	p.mu.Unlock()
	p.engine.SetEnvLighting(on)
	return on
}

// ToggleCameraMode switches between perspective and orthographic
// projection, keeping the subject's apparent size. The orientation
// widget is bound to one camera configuration, so it is torn down and
// recreated.
func (p *Presenter) ToggleCameraMode() render.Projection {
	cam := p.engine.Camera()
	if cam.Projection == render.Perspective {
		cam.SetProjection(render.Orthographic)
	} else {
		cam.SetProjection(render.Perspective)
	}

	p.mu.Lock()
	if p.widget != nil {
		p.widget.Dispose()
		p.widget = p.widgetFn(cam)
	}
	p.mu.Unlock()
	return cam.Projection
}

// Camera returns the engine's camera.
func (p *Presenter) Camera() *render.Camera {
	return p.engine.Camera()
}

// Controls returns the presenter's orbit controls, initialized lazily
// on first use.
func (p *Presenter) Controls() *OrbitControls {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controlsLocked()
}

func (p *Presenter) controlsLocked() *OrbitControls {
	if p.controls == nil {
		p.controls = NewOrbitControls(p.engine.Camera())
	}
	return p.controls
}

// TakeScreenshot renders the current frame and writes it to path as
// PNG.
func (p *Presenter) TakeScreenshot(path string) error {
	if p.disposed.Load() {
		return ErrDisposed
	}
	p.engine.Render()
	return p.engine.Framebuffer().SavePNG(path)
}

// Tick advances one frame: camera animation, widget refresh, render.
// Ticks on a disposed presenter do nothing.
func (p *Presenter) Tick() {
	if p.disposed.Load() {
		return
	}
	p.anim.update(p.engine.Camera())

	p.mu.Lock()
	w := p.widget
	p.mu.Unlock()
	if w != nil {
		w.Update()
	}

	p.engine.Render()
}
