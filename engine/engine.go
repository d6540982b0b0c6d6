// Package engine wires the catalog, texture, sprite, animation, enemy,
// ECL, render-state, and draw packages into the single per-frame
// Step/Render call a host program drives, the in-process analogue of the
// teacher's nes.Console owning cartridge+cpu+ppu+apu as one struct passed
// by reference through step functions.
package engine

import (
	"time"

	"github.com/GensokyoClub/th06/anmvm"
	"github.com/GensokyoClub/th06/backend"
	"github.com/GensokyoClub/th06/catalog"
	"github.com/GensokyoClub/th06/draw"
	"github.com/GensokyoClub/th06/eclvm"
	"github.com/GensokyoClub/th06/enemy"
	"github.com/GensokyoClub/th06/render"
	"github.com/GensokyoClub/th06/sprite"
	"github.com/GensokyoClub/th06/texture"
)

// SoundQueue is the narrow boundary to the sound engine described in the
// spec's concurrency model: a small fixed-size queue fed by indices under
// a mutex the audio thread drains, modeled here as an interface so Engine
// can be driven in tests without a real audio backend.
type SoundQueue interface {
	// Enqueue reports whether the cue was accepted; false means the
	// queue was full and the cue is dropped, matching the fixed-size
	// queue's overflow behavior.
	Enqueue(cueID int) bool
}

type noopSoundQueue struct{}

func (noopSoundQueue) Enqueue(int) bool { return true }

type boundVm struct {
	id        int
	vm        *anmvm.Vm
	spriteGen uint64
}

type boundEnemy struct {
	enemy  *enemy.Enemy
	script *eclvm.Script
}

// Engine owns every subsystem and the live set of VMs and enemies driven
// each tick.
type Engine struct {
	Catalog  *catalog.Catalog
	Sprites  *sprite.Table
	Textures *texture.Store
	Backend  backend.Backend
	RenderCache *render.Cache
	Draw     *draw.Frontend
	Anm      *anmvm.Interpreter
	Ecl      *eclvm.Interpreter
	Sound    SoundQueue

	globals [16]int32

	vms      []*boundVm
	vmsByID  map[int]*boundVm
	nextVmID int
	enemies  []*boundEnemy

	// AnmScripts is the host-populated registry OpSetMainVmScript and
	// OpSetSlotVmScript index into: scriptID -> decoded instruction
	// stream. Exported because loading and decoding archive scripts
	// into it is a host-side concern, not Engine's.
	AnmScripts map[int][]anmvm.Instruction

	playerX, playerY float32

	FrameMeter *Meter
}

// New creates an Engine. backendImpl must already be fully initialized
// (window/context created); Engine never creates one itself, matching the
// spec's "graphics backend itself is out of scope" boundary.
func New(backendImpl backend.Backend, sprites *sprite.Table, textures *texture.Store, useVertexColor bool) *Engine {
	e := &Engine{
		Sprites:     sprites,
		Textures:    textures,
		Backend:     backendImpl,
		RenderCache: render.New(),
		Anm:         anmvm.NewInterpreter(),
		Sound:       noopSoundQueue{},
		FrameMeter:  NewMeter(30),
		vmsByID:     make(map[int]*boundVm),
		AnmScripts:  make(map[int][]anmvm.Instruction),
	}
	e.Catalog = catalog.New(sprites, textures)
	e.Draw = draw.New(backendImpl, useVertexColor, textures.Dummy())
	return e
}

// SetExtrinsicCalls installs the host's ExCall table and emitter/rng,
// replacing Ecl. Exists as a separate step from New because a scene
// often does not know its extrinsic-call set until its first archive is
// loaded. Engine itself serves as the ECL interpreter's AnmCoupler and
// Player, the single point where enemy scripts reach back into the
// animation VMs they own and the player position they aim at.
func (e *Engine) SetExtrinsicCalls(emitter eclvm.Emitter, rng eclvm.RNG, calls []eclvm.ExCall) {
	e.Ecl = eclvm.NewInterpreter(&e.globals, emitter, rng, calls, e, e)
}

// SetPlayerPosition records the player position Player-interface
// consumers (MoveToPlayer, aimed bullet patterns) read.
func (e *Engine) SetPlayerPosition(x, y float32) { e.playerX, e.playerY = x, y }

// Position implements eclvm.Player.
func (e *Engine) Position() (float32, float32) { return e.playerX, e.playerY }

// RegisterAnmScript makes script reachable by scriptID for the
// OpSetMainVmScript/OpSetSlotVmScript coupling opcodes, the runtime
// counterpart of a catalog's scriptEntries directory.
func (e *Engine) RegisterAnmScript(scriptID int, script []anmvm.Instruction) {
	e.AnmScripts[scriptID] = script
}

// SetMainScript implements eclvm.AnmCoupler.
func (e *Engine) SetMainScript(en *enemy.Enemy, scriptID int) {
	e.setVmScript(en.AnmVmID, scriptID)
}

// SetSlotScript implements eclvm.AnmCoupler.
func (e *Engine) SetSlotScript(en *enemy.Enemy, slot int, scriptID int) {
	if slot < 0 || slot >= len(en.SlotVmIDs) {
		return
	}
	e.setVmScript(en.SlotVmIDs[slot], scriptID)
}

func (e *Engine) setVmScript(vmID, scriptID int) {
	bv, ok := e.vmsByID[vmID]
	if !ok {
		return
	}
	script, ok := e.AnmScripts[scriptID]
	if !ok {
		return
	}
	bv.vm.SetScript(script)
}

// InterruptMain implements eclvm.AnmCoupler.
func (e *Engine) InterruptMain(en *enemy.Enemy, label int) {
	if bv, ok := e.vmsByID[en.AnmVmID]; ok {
		bv.vm.Interrupt(label)
	}
}

// InterruptSlot implements eclvm.AnmCoupler.
func (e *Engine) InterruptSlot(en *enemy.Enemy, slot int, label int) {
	if slot < 0 || slot >= len(en.SlotVmIDs) {
		return
	}
	if bv, ok := e.vmsByID[en.SlotVmIDs[slot]]; ok {
		bv.vm.Interrupt(label)
	}
}

// SpawnVm registers a new animation VM bound to spriteID, running script,
// and returns the stable id an Enemy's AnmVmID/SlotVmIDs can reference to
// reach it through the coupling opcodes.
func (e *Engine) SpawnVm(spriteID int, script []anmvm.Instruction) (*anmvm.Vm, int) {
	gen := uint64(0)
	if s := e.Sprites.Get(spriteID); s != nil {
		gen = s.GenerationID
	}
	vm := anmvm.New(spriteID, gen, script)
	e.nextVmID++
	id := e.nextVmID
	bv := &boundVm{id: id, vm: vm, spriteGen: gen}
	e.vms = append(e.vms, bv)
	e.vmsByID[id] = bv
	return vm, id
}

// SpawnEnemy registers a new enemy running script.
func (e *Engine) SpawnEnemy(enemyScript *eclvm.Script) *enemy.Enemy {
	en := enemy.New(nil, &e.globals)
	e.enemies = append(e.enemies, &boundEnemy{enemy: en, script: enemyScript})
	return en
}

// Step advances every enemy's ECL state, then every VM's ANM state, by
// one tick, in that order: enemy scripts decide motion and spawn new
// VMs/enemies before those new VMs take their first animation step,
// matching the spec's "enemy ECL steps, then ANM VM steps" frame order.
func (e *Engine) Step() {
	live := e.enemies[:0]
	for _, be := range e.enemies {
		if be.enemy.Done() {
			continue
		}
		if e.Ecl != nil {
			e.Ecl.Step(be.enemy, be.script)
		}
		live = append(live, be)
	}
	e.enemies = live

	liveVms := e.vms[:0]
	for _, bv := range e.vms {
		if bv.vm.Done() {
			delete(e.vmsByID, bv.id)
			continue
		}
		e.Anm.Step(bv.vm)
		liveVms = append(liveVms, bv)
	}
	e.vms = liveVms
}

// Render flushes the render-state cache and draws every visible VM's
// current sprite, then presents the frame.
func (e *Engine) Render() {
	e.RenderCache.Flush(e.Backend)

	for _, bv := range e.vms {
		vm := bv.vm
		if vm.Hidden() {
			continue
		}
		spr := e.Sprites.Get(vm.SpriteID)
		if spr == nil {
			continue
		}
		var tex *texture.Texture
		if t := e.Textures.At(spr.TextureIdx); t != nil {
			tex = t
		}
		e.Draw.Draw(vm, spr, tex)
	}

	e.Backend.Present()
}

// Run drives Step/Render in a loop until stop returns true, recording
// each frame's wall-clock duration into FrameMeter. It is a convenience
// for cmd/th06; tests call Step/Render directly.
func (e *Engine) Run(stop func() bool) {
	for !stop() {
		start := time.Now()
		e.Step()
		e.Render()
		e.FrameMeter.Record(time.Since(start))
	}
}
