// Command th06 loads an archive, drives engine.Engine against an SDL2
// window, and exits cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/GensokyoClub/th06/backend/sdlbackend"
	"github.com/GensokyoClub/th06/catalog"
	"github.com/GensokyoClub/th06/config"
	"github.com/GensokyoClub/th06/eclvm"
	"github.com/GensokyoClub/th06/enemy"
	"github.com/GensokyoClub/th06/engine"
	"github.com/GensokyoClub/th06/sprite"
	"github.com/GensokyoClub/th06/texture"
)

func init() {
	runtime.LockOSThread()
}

func initSDL(width, height int) (*sdl.Renderer, func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, func() {}, fmt.Errorf("initSDL: unable to init sdl: %s", err)
	}

	window, renderer, err := sdl.CreateWindowAndRenderer(int32(width), int32(height), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, func() {}, fmt.Errorf("initSDL: unable to create window: %s", err)
	}

	cleanup := func() {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
	}
	return renderer, cleanup, nil
}

// logEmitter reports bullet/laser spawns on stderr. A real bullet pool is
// out of scope; this exists so the demo binary has something to plug into
// eclvm.NewInterpreter's Emitter slot.
type logEmitter struct{}

func (logEmitter) SpawnBullet(e *enemy.Enemy, b eclvm.BulletSpawn) {
	fmt.Fprintf(os.Stderr, "spawn bullet kind=%d speed=%.2f angle=%.2f\n", b.Kind, b.Speed, b.Angle)
}

func (logEmitter) SpawnLaser(e *enemy.Enemy, l eclvm.LaserSpawn) {
	fmt.Fprintf(os.Stderr, "spawn laser slot=%d kind=%d speed=%.2f angle=%.2f\n", l.Slot, l.Kind, l.Speed, l.Angle)
}

func (logEmitter) SpawnEffect(e *enemy.Enemy, kind int32, offsetX, offsetY float32) {
	fmt.Fprintf(os.Stderr, "spawn effect kind=%d at (%.2f, %.2f)\n", kind, offsetX, offsetY)
}

func (logEmitter) DropItems(e *enemy.Enemy, count int32, radius, powerThreshold float32) {
	fmt.Fprintf(os.Stderr, "drop items count=%d radius=%.2f\n", count, radius)
}

type mathRNG struct{ r *rand.Rand }

func (m mathRNG) Float32() float32 { return m.r.Float32() }

func run(ctx context.Context, archivePath string, spriteID int, width, height int, opts config.Options) error {
	renderer, quitSDL, err := initSDL(width, height)
	if err != nil {
		return err
	}
	defer quitSDL()

	back := sdlbackend.New(renderer)

	openFunc := func(name string) (io.ReadCloser, error) {
		return os.Open(name)
	}

	textures, err := texture.New(back, openFunc)
	if err != nil {
		return fmt.Errorf("unable to create texture store: %w", err)
	}
	textures.ForceLowColor = opts.Force16Bit

	sprites := sprite.New()

	eng := engine.New(back, sprites, textures, !opts.NoVertexBuffer)
	eng.SetExtrinsicCalls(logEmitter{}, mathRNG{r: rand.New(rand.NewSource(1))}, nil)

	if archivePath != "" {
		if _, err := eng.Catalog.Load(archivePath, 0); err != nil {
			return fmt.Errorf("unable to load archive %s: %w", archivePath, err)
		}
	}

	vm, _ := eng.SpawnVm(spriteID, nil)
	vm.Visible = true

	frameBudget := time.Second / 60

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if _, ok := event.(*sdl.QuitEvent); ok {
				return nil
			}
		}

		start := time.Now()
		eng.Step()
		eng.Render()
		eng.FrameMeter.Record(time.Since(start))

		if elapsed := time.Since(start); elapsed < frameBudget {
			time.Sleep(frameBudget - elapsed)
		}
	}
}

func main() {
	archive := flag.String("archive", "", "path to a sprite/script archive to load")
	spriteID := flag.Int("sprite", 0, "sprite id to bind the initial animation VM to")
	width := flag.Int("width", 640, "window width")
	height := flag.Int("height", 480, "window height")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")

	flag.Parse()

	opts, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not create CPU profile:", err)
			os.Exit(2)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, "could not start CPU profile:", err)
			os.Exit(2)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigchan
		cancel()
	}()

	if err := run(ctx, *archive, *spriteID, *width, *height, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
