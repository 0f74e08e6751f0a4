// plinth - terminal 3D scene presenter
// Renders a declarative scene of PLY and glTF/GLB models in the terminal.
//
// Controls:
//
//	Mouse drag  - Orbit camera
//	Click       - Pick model under cursor
//	Scroll      - Zoom in/out
//	W/S         - Orbit up/down
//	A/D         - Orbit left/right
//	+/-         - Zoom
//	O           - Toggle perspective/orthographic
//	H           - Toggle head light
//	E           - Toggle environment lighting
//	R           - Reset camera to home pose
//	P           - Save screenshot (PNG)
//	Tab         - Toggle visibility of the picked model
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/plinth3d/plinth/pkg/presenter"
	"github.com/plinth3d/plinth/pkg/render"
	"github.com/plinth3d/plinth/pkg/resolver"
	"github.com/plinth3d/plinth/pkg/scene"
)

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}

type options struct {
	fps          int
	allowPartial bool
	statePath    string
	shotDir      string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "plinth <scene.json>",
		Short: "Terminal 3D scene presenter",
		Long: `plinth renders a declarative 3D scene in your terminal.

The scene file lists PLY and glTF/GLB models with optional positions,
rotations, and material overrides. Models without a position are
centered and grounded automatically, and the camera frames the whole
scene.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().IntVar(&opts.fps, "fps", 60, "target frames per second")
	cmd.Flags().BoolVar(&opts.allowPartial, "allow-partial", false, "show the models that loaded even when others failed")
	cmd.Flags().StringVar(&opts.statePath, "state", "", "presenter state JSON, restored on start and saved on exit")
	cmd.Flags().StringVar(&opts.shotDir, "screenshot-dir", ".", "directory screenshots are written to")
	return cmd
}

// sceneDirResolver resolves relative model references against the
// directory of the scene file, so local scenes work without a project.
type sceneDirResolver struct {
	dir string
}

func (r *sceneDirResolver) Resolve(filePath string, _ resolver.Context) (string, error) {
	if resolver.IsAbsoluteURL(filePath) {
		return filePath, nil
	}
	if filepath.IsAbs(filePath) {
		return filePath, nil
	}
	return filepath.Join(r.dir, filePath), nil
}

// localFetcher reads local paths from disk and delegates http(s) URLs
// to the wrapped fetcher.
func localFetcher(remote presenter.FetchFunc) presenter.FetchFunc {
	return func(ctx context.Context, url string) ([]byte, error) {
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			return remote(ctx, url)
		}
		return os.ReadFile(url)
	}
}

// hudStyles are built once; lipgloss resolves them against the
// terminal's color profile.
type hudStyles struct {
	title  lipgloss.Style
	stat   lipgloss.Style
	toggle lipgloss.Style
	pick   lipgloss.Style
}

func newHUDStyles() hudStyles {
	return hudStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("0")),
		stat:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Background(lipgloss.Color("0")),
		toggle: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Background(lipgloss.Color("0")),
		pick:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Background(lipgloss.Color("0")),
	}
}

// hud is the overlay with scene stats and toggle indicators.
type hud struct {
	styles    hudStyles
	sceneName string
	show      bool

	fps       float64
	fpsFrames int
	fpsTime   time.Time

	picked string
	status string
}

func newHUD(sceneName string) *hud {
	return &hud{
		styles:    newHUDStyles(),
		sceneName: sceneName,
		show:      true,
		fpsTime:   time.Now(),
	}
}

func (h *hud) updateFPS() {
	h.fpsFrames++
	if elapsed := time.Since(h.fpsTime); elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

func (h *hud) render(p *presenter.Presenter, width, height int) {
	const clearLine = "\x1b[2K"
	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)
	if !h.show {
		return
	}

	var tris, verts int
	for _, id := range p.LoadedModelIDs() {
		if s, ok := p.ModelStats(id); ok {
			tris += s.Triangles
			verts += s.Vertices
		}
	}

	fmt.Print(moveTo(1, 1) + h.styles.stat.Render(fmt.Sprintf(" %.0f FPS ", h.fps)))

	title := h.styles.title.Render(" " + h.sceneName + " ")
	titleCol := max((width-len(h.sceneName)-2)/2, 1)
	fmt.Print(moveTo(1, titleCol) + title)

	counts := h.styles.stat.Render(fmt.Sprintf(" %d tris / %d verts ", tris, verts))
	fmt.Print(moveTo(1, max(width-24, 1)) + counts)

	st := p.GetState()
	mode := "persp"
	if p.Camera().Projection == render.Orthographic {
		mode = "ortho"
	}
	toggles := fmt.Sprintf(" [%s] head:%s env:%s ",
		mode, onOff(st.Rendering.HeadLightEnabled), onOff(st.Rendering.EnvLightingEnabled))
	fmt.Print(moveTo(height, 1) + h.styles.toggle.Render(toggles))

	if h.status != "" {
		fmt.Print(moveTo(height, max(width-len(h.status)-2, 1)) + h.styles.pick.Render(" "+h.status+" "))
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func run(ctx context.Context, scenePath string, opts options) error {
	data, err := os.ReadFile(scenePath)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	desc, err := scene.Parse(data)
	if err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	surface := render.NewSurface(width, height*2)
	p := presenter.New(surface,
		presenter.WithResolver(&sceneDirResolver{dir: filepath.Dir(scenePath)}),
		presenter.WithFetcher(localFetcher(presenter.HTTPFetcher())),
	)
	defer p.Dispose()

	_, err = p.LoadScene(ctx, desc, presenter.LoadOptions{AllowPartial: opts.allowPartial})
	if err != nil && !opts.allowPartial {
		cleanup()
		return fmt.Errorf("load scene: %w", err)
	}

	if opts.statePath != "" {
		if err := restoreState(p, opts.statePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			cleanup()
			return fmt.Errorf("restore state: %w", err)
		}
	}

	h := newHUD(filepath.Base(scenePath))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mouseDown, dragged bool
	var lastX, lastY int

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				surface.Resize(width, height*2)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"), ev.MatchString("q"):
					cancel()
					return
				case ev.MatchString("w", "up"):
					p.Controls().Rotate(0, 0.08)
				case ev.MatchString("s", "down"):
					p.Controls().Rotate(0, -0.08)
				case ev.MatchString("a", "left"):
					p.Controls().Rotate(-0.08, 0)
				case ev.MatchString("d", "right"):
					p.Controls().Rotate(0.08, 0)
				case ev.MatchString("+", "="):
					p.Controls().Zoom(0.9)
				case ev.MatchString("-", "_"):
					p.Controls().Zoom(1.1)
				case ev.MatchString("o"):
					mode := p.ToggleCameraMode()
					h.status = "camera: " + mode.String()
				case ev.MatchString("h"):
					h.status = "head light " + onOff(p.ToggleHeadLight())
				case ev.MatchString("e"):
					h.status = "env lighting " + onOff(p.ToggleEnvLighting())
				case ev.MatchString("r"):
					p.ResetCamera()
					h.status = ""
				case ev.MatchString("p"):
					name := filepath.Join(opts.shotDir,
						fmt.Sprintf("plinth-%s.png", time.Now().Format("20060102-150405")))
					if err := p.TakeScreenshot(name); err != nil {
						h.status = "screenshot failed"
					} else {
						h.status = "saved " + filepath.Base(name)
					}
				case ev.MatchString("tab"):
					if h.picked != "" {
						vis := !p.ModelVisibility(h.picked)
						p.SetModelVisibility(h.picked, vis)
						h.status = h.picked + " " + onOff(vis)
					}
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					h.show = !h.show
				}

			case uv.MouseClickEvent:
				mouseDown, dragged = true, false
				lastX, lastY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false
				if !dragged {
					fb := surface.Framebuffer()
					if hit, ok := p.Pick(ev.X, ev.Y*2, fb.Width, fb.Height); ok {
						h.picked = hit.ModelID
						h.status = fmt.Sprintf("picked %s (%.2fu away)", hit.ModelID, hit.Distance)
					} else {
						h.picked = ""
						h.status = ""
					}
				}

			case uv.MouseMotionEvent:
				if mouseDown {
					dx, dy := ev.X-lastX, ev.Y-lastY
					if dx != 0 || dy != 0 {
						dragged = true
						p.Controls().Rotate(float64(-dx)*0.03, float64(dy)*0.06)
					}
					lastX, lastY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					p.Controls().Zoom(1 / 1.1)
				case uv.MouseWheelDown:
					p.Controls().Zoom(1.1)
				}
			}
		}
	}()

	frame := time.Second / time.Duration(max(opts.fps, 1))
	for {
		select {
		case <-ctx.Done():
			cleanup()
			if opts.statePath != "" {
				if err := saveState(p, opts.statePath); err != nil {
					return fmt.Errorf("save state: %w", err)
				}
			}
			return nil
		default:
		}

		start := time.Now()
		p.Tick()
		surface.Framebuffer().Draw(term, term.Bounds())
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}
		h.updateFPS()
		h.render(p, width, height)

		if elapsed := time.Since(start); elapsed < frame {
			time.Sleep(frame - elapsed)
		}
	}
}

func restoreState(p *presenter.Presenter, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	st, err := presenter.ParseState(data)
	if err != nil {
		return err
	}
	p.SetState(st)
	return nil
}

func saveState(p *presenter.Presenter, path string) error {
	data, err := p.GetState().Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
