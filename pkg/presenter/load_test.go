package presenter

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/plinth3d/plinth/pkg/models"
	"github.com/plinth3d/plinth/pkg/scene"
)

func TestLoadSceneUnsupportedFormatAllOrNothing(t *testing.T) {
	eng := newStubEngine()
	desc := &scene.Description{
		Models: []scene.ModelDefinition{
			{ID: "good", File: "https://files.test/quad.ply"},
			{ID: "bad", File: "https://files.test/points.xyz"},
		},
	}
	fetch := mapFetcher(map[string][]byte{
		"https://files.test/quad.ply": plyQuad(-1, 0, 1, 2, 0),
	})
	p := New(eng, WithFetcher(fetch))

	res, err := p.LoadScene(context.Background(), desc, LoadOptions{})
	if err == nil {
		t.Fatal("expected load error")
	}
	var ufe *scene.UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want UnsupportedFormatError in chain", err)
	}
	if !strings.Contains(err.Error(), `"bad"`) {
		t.Errorf("error should name the failing model id: %v", err)
	}
	if len(eng.attached) != 0 {
		t.Errorf("%d nodes attached, want none on all-or-nothing failure", len(eng.attached))
	}
	if res.Models["good"].Err != nil || res.Models["good"].Node == nil {
		t.Error("per-model result for the good model should still settle successfully")
	}
	if res.Models["bad"].Err == nil {
		t.Error("per-model result for the bad model should carry its error")
	}
}

func TestLoadSceneAllowPartial(t *testing.T) {
	eng := newStubEngine()
	desc := &scene.Description{
		Models: []scene.ModelDefinition{
			{ID: "good", File: "https://files.test/quad.ply"},
			{ID: "bad", File: "https://files.test/missing.ply"},
		},
	}
	fetch := mapFetcher(map[string][]byte{
		"https://files.test/quad.ply": plyQuad(-1, 0, 1, 2, 0),
	})
	p := New(eng, WithFetcher(fetch))

	_, err := p.LoadScene(context.Background(), desc, LoadOptions{AllowPartial: true})
	if err == nil {
		t.Fatal("partial load should still report the failures")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != 404 {
		t.Fatalf("err = %v, want FetchError 404 in chain", err)
	}
	if len(eng.attached) != 1 || eng.attached["good"] == nil {
		t.Errorf("attached = %v, want only the good model", len(eng.attached))
	}
	if !p.ModelVisibility("good") {
		t.Error("good model should be visible")
	}
}

func TestLoadSceneReloadReplacesNodes(t *testing.T) {
	eng := newStubEngine()
	p := New(eng, WithFetcher(mapFetcher(map[string][]byte{
		"https://files.test/a.ply": plyQuad(-1, 0, 1, 2, 0),
		"https://files.test/b.ply": plyQuad(-2, 0, 2, 1, 0),
	})))

	first := &scene.Description{Models: []scene.ModelDefinition{{ID: "a", File: "https://files.test/a.ply"}}}
	if _, err := p.LoadScene(context.Background(), first, LoadOptions{}); err != nil {
		t.Fatalf("first load: %v", err)
	}

	second := &scene.Description{Models: []scene.ModelDefinition{{ID: "b", File: "https://files.test/b.ply"}}}
	if _, err := p.LoadScene(context.Background(), second, LoadOptions{}); err != nil {
		t.Fatalf("second load: %v", err)
	}

	if _, ok := eng.attached["a"]; ok {
		t.Error("old scene node still attached after reload")
	}
	if p.ModelVisibility("a") {
		t.Error("stale visibility entry survived the reload")
	}
	if got := p.LoadedModelIDs(); len(got) != 1 || got[0] != "b" {
		t.Errorf("loaded ids = %v, want [b]", got)
	}
}

func TestLoadSceneSuperseded(t *testing.T) {
	eng := newStubEngine()

	gate := make(chan struct{})
	slow := plyQuad(-1, 0, 1, 2, 0)
	fast := plyQuad(-2, 0, 2, 1, 0)
	fetch := func(_ context.Context, url string) ([]byte, error) {
		if strings.HasSuffix(url, "slow.ply") {
			<-gate
			return slow, nil
		}
		return fast, nil
	}
	p := New(eng, WithFetcher(fetch))

	firstDone := make(chan error, 1)
	go func() {
		desc := &scene.Description{Models: []scene.ModelDefinition{{ID: "m", File: "https://files.test/slow.ply"}}}
		_, err := p.LoadScene(context.Background(), desc, LoadOptions{})
		firstDone <- err
	}()

	// Let the first load reach its fetch, then start a newer one.
	desc := &scene.Description{Models: []scene.ModelDefinition{{ID: "m", File: "https://files.test/fast.ply"}}}
	for p.gen.Load() == 0 {
		runtime.Gosched()
	}
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("second load: %v", err)
	}
	close(gate)

	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first load err = %v, want ErrSuperseded", err)
	}
	// The newer load's node must be the one attached.
	if node := eng.attached["m"]; node == nil || node.Mesh == nil {
		t.Fatal("winning load's node missing")
	}
	if got := eng.attached["m"].Mesh.Bounds().Max.X; got != 2 {
		t.Errorf("attached node bounds max x = %v, want the fast file's 2", got)
	}
}

func TestLoadSceneStaleWriterKeepsNewerScene(t *testing.T) {
	eng := newStubEngine()

	gate := make(chan struct{})
	fetched := make(chan struct{})
	fetch := func(_ context.Context, _ string) ([]byte, error) {
		<-gate
		close(fetched)
		return plyQuad(-1, 0, 1, 2, 0), nil
	}
	p := New(eng, WithFetcher(fetch))

	done := make(chan error, 1)
	go func() {
		desc := &scene.Description{Models: []scene.ModelDefinition{{ID: "old", File: "https://files.test/old.ply"}}}
		_, err := p.LoadScene(context.Background(), desc, LoadOptions{})
		done <- err
	}()

	// Hold the presenter mutex, let the first load finish its fetch and
	// park on the lock, then complete a newer load in the meantime.
	p.mu.Lock()
	close(gate)
	<-fetched
	time.Sleep(20 * time.Millisecond)

	p.gen.Add(1)
	newNode := models.NewGroup("new")
	p.nodes["new"] = newNode
	p.engine.Attach("new", newNode)
	p.mu.Unlock()

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale load err = %v, want ErrSuperseded", err)
	}
	if eng.attached["new"] == nil {
		t.Error("stale load detached the newer scene")
	}
	if _, ok := eng.attached["old"]; ok {
		t.Error("stale load attached its own nodes")
	}
}

func TestLoadSceneRelativePathNeedsProject(t *testing.T) {
	eng := newStubEngine()
	p := New(eng, WithFetcher(mapFetcher(nil)))

	desc := &scene.Description{Models: []scene.ModelDefinition{{ID: "m", File: "model.ply"}}}
	_, err := p.LoadScene(context.Background(), desc, LoadOptions{})
	if err == nil || !strings.Contains(err.Error(), `"m"`) {
		t.Errorf("err = %v, want resolution failure naming the model", err)
	}
}

func TestLoadSceneDuplicateIDsRejected(t *testing.T) {
	eng := newStubEngine()
	p := New(eng, WithFetcher(mapFetcher(nil)))

	desc := &scene.Description{Models: []scene.ModelDefinition{
		{ID: "m", File: "a.ply"},
		{ID: "m", File: "b.ply"},
	}}
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err == nil {
		t.Error("duplicate ids must fail validation")
	}
}
