package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/phys"
)

const crumble = `
allow := !(contact.material == "crumble" && contact.touch_time > 0.5)
`

func preContact(material string, touch float64) phys.PreContact {
	var c phys.Contact
	c.Material = material
	c.OrthoN = cp.Vector{Y: -1}
	c.HasContact = true
	return phys.PreContact{Contact: c, TouchDuration: touch}
}

func TestFilterAllow(t *testing.T) {
	f, err := Compile("crumble", []byte(crumble))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	cases := []struct {
		name     string
		material string
		touch    float64
		want     bool
	}{
		{name: "fresh", material: "crumble", touch: 0.25, want: true},
		{name: "worn out", material: "crumble", touch: 1, want: false},
		{name: "other material", material: "stone", touch: 1, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.Allow(preContact(tc.material, tc.touch))
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile("empty", []byte(`x := 1`)); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
	if _, err := Compile("broken", []byte(`allow := (`)); err == nil {
		t.Fatalf("expected a compile error")
	}
}

func TestByMaterial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghost.tengo")
	if err := os.WriteFile(path, []byte(`allow := contact.normal_y > 0`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	filters, err := LoadAll(map[string]string{"ghost": path})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	fn := ByMaterial(filters)
	if fn == nil {
		t.Fatalf("expected a filter func")
	}
	if fn(preContact("ghost", 0)) {
		t.Fatalf("expected floor contact with ghost to be dropped")
	}
	if !fn(preContact("stone", 0)) {
		t.Fatalf("expected other materials to pass")
	}

	if ByMaterial(nil) != nil {
		t.Fatalf("expected no filter func without filters")
	}

	_, err = LoadAll(map[string]string{"missing": filepath.Join(dir, "missing.tengo")})
	if err == nil {
		t.Fatalf("expected an error for a missing script")
	}
}
