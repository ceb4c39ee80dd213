package script

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/tilecollide/phys"
)

// ErrNoResult is returned when a filter script never assigns allow.
var ErrNoResult = errors.New("script: filter does not set allow")

// Filter is a compiled tengo script that decides whether a contact is
// solved. The script reads the contact global and assigns a bool to allow.
//
//	allow := !(contact.material == "crumble" && contact.touch_time > 0.5)
type Filter struct {
	name     string
	compiled *tengo.Compiled
}

func Compile(name string, src []byte) (*Filter, error) {
	s := tengo.NewScript(src)
	_ = s.Add("contact", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}

	// globals only exist once the script has run
	if err := compiled.Set("contact", contactValues(phys.PreContact{})); err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: run %s: %w", name, err)
	}
	if !compiled.IsDefined("allow") {
		return nil, fmt.Errorf("script: compile %s: %w", name, ErrNoResult)
	}
	return &Filter{name: name, compiled: compiled}, nil
}

// Load compiles the script at path.
func Load(path string) (*Filter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", path, err)
	}
	return Compile(path, src)
}

func (f *Filter) Name() string { return f.name }

func contactValues(pc phys.PreContact) map[string]any {
	c := pc.Contact
	return map[string]any{
		"normal_x":     c.OrthoN.X,
		"normal_y":     c.OrthoN.Y,
		"surface_x":    c.ColliderN.X,
		"surface_y":    c.ColliderN.Y,
		"separation":   c.Separation,
		"has_contact":  c.HasContact,
		"material":     c.Material,
		"quad":         int(c.ID.Quad),
		"slip":         c.IsSlip,
		"touch_time":   pc.TouchDuration,
		"velocity_x":   c.Velocity.X,
		"velocity_y":   c.Velocity.Y,
		"surface_vel":  c.SurfaceSpeed,
		"impact_time":  c.ImpactTime,
		"transposable": c.Transposable(),
	}
}

// Allow runs the script against one contact.
func (f *Filter) Allow(pc phys.PreContact) (bool, error) {
	if f == nil || f.compiled == nil {
		return true, nil
	}
	if err := f.compiled.Set("contact", contactValues(pc)); err != nil {
		return true, fmt.Errorf("script: %s: %w", f.name, err)
	}
	if err := f.compiled.Run(); err != nil {
		return true, fmt.Errorf("script: run %s: %w", f.name, err)
	}
	v := f.compiled.Get("allow")
	if v == nil || v.IsUndefined() {
		return true, fmt.Errorf("script: %s: %w", f.name, ErrNoResult)
	}
	return v.Bool(), nil
}

// PreContact adapts the filter for World.SetPreContact. A script that fails
// lets the contact through.
func (f *Filter) PreContact() phys.PreContactFunc {
	return func(pc phys.PreContact) bool {
		ok, err := f.Allow(pc)
		if err != nil {
			log.Printf("Filter: %v", err)
			return true
		}
		return ok
	}
}

// ByMaterial runs the filter registered for each contact's material and lets
// every other contact through.
func ByMaterial(filters map[string]*Filter) phys.PreContactFunc {
	if len(filters) == 0 {
		return nil
	}
	fns := make(map[string]phys.PreContactFunc, len(filters))
	for material, f := range filters {
		fns[material] = f.PreContact()
	}
	return func(pc phys.PreContact) bool {
		fn, ok := fns[pc.Contact.Material]
		if !ok {
			return true
		}
		return fn(pc)
	}
}

// LoadAll compiles one filter per material from a material to path map.
// Every script is tried; the first error is returned.
func LoadAll(paths map[string]string) (map[string]*Filter, error) {
	materials := make([]string, 0, len(paths))
	for m := range paths {
		materials = append(materials, m)
	}
	sort.Strings(materials)

	out := make(map[string]*Filter, len(paths))
	var firstErr error
	for _, m := range materials {
		f, err := Load(paths[m])
		if err != nil {
			log.Printf("Filter: material %s: %v", m, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[m] = f
	}
	return out, firstErr
}
