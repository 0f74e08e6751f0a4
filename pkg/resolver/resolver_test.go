package resolver

import (
	"errors"
	"testing"
)

func TestResolveAbsolutePassthrough(t *testing.T) {
	r := NewProjectResolver("https://storage.example.com")

	in := "https://cdn.example.com/models/a.glb"
	got, err := r.Resolve(in, Context{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != in {
		t.Errorf("absolute URL should pass through unchanged, got %q", got)
	}
}

func TestResolveRelative(t *testing.T) {
	r := NewProjectResolver("https://storage.example.com/")

	got, err := r.Resolve("parts/wheel front.ply", Context{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "https://storage.example.com/projects/p1/files/parts/wheel%20front.ply"
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveRelativeWithoutProject(t *testing.T) {
	r := NewProjectResolver("https://storage.example.com")

	_, err := r.Resolve("model.glb", Context{})
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if re.File != "model.glb" {
		t.Errorf("error should name the file, got %q", re.File)
	}
}
