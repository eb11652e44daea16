package shaderlib

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/logging"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

var log = logging.For("shaderlib")

// Library is the ShaderLibrary of §4.2: compiles, caches by name, exposes
// reflection, and re-registers descriptor layouts on reload.
type Library struct {
	device vk.Device

	glsl  *glslCompiler
	slang *slangCompiler

	descriptors *descriptor.Manager

	byName map[string]uint32 // name -> slot index
	slots  []slot

	defaultIncludePaths []string
	globalDefines       map[string]string

	dirty map[string]bool // names MarkDirty flagged for the next ReloadChanged()
}

func New(device vk.Device, descriptors *descriptor.Manager, includePaths []string, defines map[string]string) *Library {
	lib := &Library{
		device:              device,
		glsl:                newGLSLCompiler(),
		descriptors:         descriptors,
		byName:              map[string]uint32{},
		defaultIncludePaths: includePaths,
		globalDefines:       defines,
		dirty:               map[string]bool{},
	}
	lib.slots = append(lib.slots, slot{}) // reserve index 0
	if sc, err := newSlangCompiler(); err == nil {
		lib.slang = sc
	} else {
		log.Warn("slang compiler unavailable, Slang shaders will fail to load", "err", err)
	}
	return lib
}

func (l *Library) compilerFor(lang Language) (Compiler, error) {
	switch lang {
	case LanguageSlang:
		if l.slang == nil {
			return nil, fmt.Errorf("shaderlib: slang compiler unavailable")
		}
		return l.slang, nil
	default:
		return l.glsl, nil
	}
}

// Load implements §4.2 load(name, info): return cached if present,
// otherwise compile, auto-register descriptor layouts and push constants
// for Slang shaders, and return a weak Handle.
func (l *Library) Load(name string, info CompileInfo) (Handle, error) {
	if idx, ok := l.byName[name]; ok {
		return Handle{index: idx, generation: l.slots[idx].generation}, nil
	}

	info.IncludePaths = append(append([]string{}, l.defaultIncludePaths...), info.IncludePaths...)
	if info.Defines == nil {
		info.Defines = map[string]string{}
	}
	for k, v := range l.globalDefines {
		if _, ok := info.Defines[k]; !ok {
			info.Defines[k] = v
		}
	}

	comp, err := l.compilerFor(info.Language)
	if err != nil {
		return Invalid, err
	}
	out, err := comp.Compile(info)
	if err != nil {
		return Invalid, fmt.Errorf("shaderlib: load %q: %w", name, err)
	}

	sh := &Shader{
		Name: name, SourcePath: info.Path, EntryPoint: info.EntryPoint,
		Stage: info.Stage, Language: info.Language,
		SPIRV: out.SPIRV, SourceHash: out.SourceHash, Reflection: out.Reflection,
	}
	if err := l.createModule(sh); err != nil {
		return Invalid, err
	}
	if sh.Reflection != nil {
		l.registerReflection(sh)
	}

	return l.insert(name, sh), nil
}

// LoadSlangShader implements §4.2 load_slang_shader(path): enumerate every
// entry point in a module and load each as its own named shader
// (`<basename>_<entry>`).
func (l *Library) LoadSlangShader(path string) ([]Handle, error) {
	if l.slang == nil {
		return nil, fmt.Errorf("shaderlib: slang compiler unavailable")
	}
	infos, err := l.slang.ModuleEntryPoints(path)
	if err != nil {
		return nil, fmt.Errorf("shaderlib: enumerate entry points in %s: %w", path, err)
	}

	handles := make([]Handle, 0, len(infos))
	for _, info := range infos {
		name := basename(path) + "_" + info.EntryPoint
		h, err := l.Load(name, info)
		if err != nil {
			log.Error("load_slang_shader: entry point failed", "path", path, "entry", info.EntryPoint, "err", err)
			continue
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (l *Library) insert(name string, sh *Shader) Handle {
	if idx, ok := l.byName[name]; ok {
		// Name collision (§9 Open Questions decision): log and overwrite.
		log.Warn("shader name collision, overwriting cache entry", "name", name)
		l.slots[idx].generation++
		l.slots[idx].shader = sh
		l.slots[idx].live = true
		return Handle{index: idx, generation: l.slots[idx].generation}
	}
	idx := uint32(len(l.slots))
	l.slots = append(l.slots, slot{shader: sh, live: true})
	l.byName[name] = idx
	return Handle{index: idx, generation: 0}
}

// HandleFor returns the current Handle for a loaded shader by name, with
// today's generation. Pipelines that must survive reload (Graphics/Compute's
// Rebuild) look their handle up again by name rather than reusing the one
// they built with, since a reload bumps the slot's generation precisely to
// expire handles taken before it.
func (l *Library) HandleFor(name string) (Handle, bool) {
	idx, ok := l.byName[name]
	if !ok {
		return Invalid, false
	}
	return Handle{index: idx, generation: l.slots[idx].generation}, true
}

// Resolve upgrades a weak Handle; ok is false once the slot's generation
// has moved past h's (§9 "upgrade fails cleanly").
func (l *Library) Resolve(h Handle) (*Shader, bool) {
	if !h.IsValid() || int(h.index) >= len(l.slots) {
		return nil, false
	}
	s := l.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, false
	}
	return s.shader, true
}

// Reload implements §4.2 reload(name): recompile iff the source changed.
func (l *Library) Reload(name string) (bool, error) {
	idx, ok := l.byName[name]
	if !ok {
		return false, fmt.Errorf("shaderlib: reload: unknown shader %q", name)
	}
	sh := l.slots[idx].shader

	comp, err := l.compilerFor(sh.Language)
	if err != nil {
		return false, err
	}
	changed, err := comp.HasSourceChanged(sh.SourcePath, sh.SourceHash)
	if err != nil || !changed {
		return false, err
	}

	out, err := comp.Compile(CompileInfo{
		Name: sh.Name, Path: sh.SourcePath, EntryPoint: sh.EntryPoint,
		Stage: sh.Stage, Language: sh.Language, IncludePaths: l.defaultIncludePaths, Defines: l.globalDefines,
	})
	if err != nil {
		log.Error("reload failed, keeping previous SPIR-V", "name", name, "err", err)
		return false, nil
	}

	if l.device != (vk.Device{}) && sh.module != (vk.ShaderModule{}) {
		l.device.DestroyShaderModule(sh.module)
	}
	sh.SPIRV = out.SPIRV
	sh.SourceHash = out.SourceHash
	sh.Reflection = out.Reflection
	if err := l.createModule(sh); err != nil {
		return false, err
	}
	if sh.Reflection != nil {
		l.registerReflection(sh)
	}
	l.slots[idx].generation++
	delete(l.dirty, name)
	return true, nil
}

// MarkDirty flags name for the next ReloadChanged call. No file watcher in
// this package calls it; the caller decides when to flag a name. The hash
// check inside Reload still gates whether a reload is real.
func (l *Library) MarkDirty(name string) { l.dirty[name] = true }

// ReloadChanged implements §4.2 reload_changed(): returns the count of
// successful reloads among names flagged dirty since the last call.
func (l *Library) ReloadChanged() int {
	count := 0
	for name := range l.dirty {
		ok, err := l.Reload(name)
		if err != nil {
			log.Error("reload_changed: reload failed", "name", name, "err", err)
			continue
		}
		if ok {
			count++
		}
	}
	return count
}

func (l *Library) createModule(sh *Shader) error {
	if l.device == (vk.Device{}) {
		return nil
	}
	code := make([]byte, len(sh.SPIRV)*4)
	for i, w := range sh.SPIRV {
		code[i*4] = byte(w)
		code[i*4+1] = byte(w >> 8)
		code[i*4+2] = byte(w >> 16)
		code[i*4+3] = byte(w >> 24)
	}
	mod, err := l.device.CreateShaderModule(&vk.ShaderModuleCreateInfo{Code: code})
	if err != nil {
		return fmt.Errorf("shaderlib: create shader module for %q: %w", sh.Name, err)
	}
	sh.module = mod
	return nil
}

// registerReflection auto-registers a Slang shader's extracted descriptor
// layouts and push constants into the DescriptorManager (§4.2 load()'s
// "auto-register its descriptor layouts and push constants").
func (l *Library) registerReflection(sh *Shader) {
	if l.descriptors == nil || sh.Reflection == nil {
		return
	}

	bySet := map[uint32][]descriptor.BindingDesc{}
	bindlessSets := map[uint32]bool{}
	for _, d := range sh.Reflection.Descriptors {
		flags := descriptor.BindingFlagNone
		if d.IsBindless {
			flags = descriptor.BindingFlagUpdateAfterBind | descriptor.BindingFlagPartiallyBound
			bindlessSets[d.Set] = true
		}
		bySet[d.Set] = append(bySet[d.Set], descriptor.BindingDesc{
			Binding: d.Binding, Type: d.Type, Stages: d.StageFlags, Count: d.Count, PerBindingFlag: flags,
		})
	}

	sh.Layouts = sh.Layouts[:0]
	for set, bindings := range bySet {
		freq := descriptor.PerMaterial
		for _, b := range bindings {
			if b.Count > staticArrayThreshold {
				freq = descriptor.Static
			} else if b.Type == vk.DESCRIPTOR_TYPE_STORAGE_IMAGE {
				freq = descriptor.PerPass
			} else if b.Type == vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER {
				freq = descriptor.PerFrame
			}
		}
		lh := l.descriptors.RegisterLayout(descriptor.DescriptorLayoutDesc{
			Name: fmt.Sprintf("%s_set%d", sh.Name, set), Bindings: bindings,
			Frequency: freq, IsBindless: bindlessSets[set],
		})
		sh.Layouts = append(sh.Layouts, lh)
	}

	if len(sh.Reflection.PushConstants) > 0 {
		ranges := make([]descriptor.PushConstantRange, len(sh.Reflection.PushConstants))
		for i, pc := range sh.Reflection.PushConstants {
			ranges[i] = descriptor.PushConstantRange{Offset: pc.Offset, Size: pc.Size, Stages: pc.StageFlags}
		}
		sh.PushConst = l.descriptors.RegisterPushConstants(descriptor.PushConstantDesc{Ranges: ranges})
	}
}

func basename(path string) string {
	start := 0
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			start = i + 1
			break
		}
	}
	end := len(path)
	for i := len(path) - 1; i >= start; i-- {
		if path[i] == '.' {
			end = i
			break
		}
	}
	return path[start:end]
}
