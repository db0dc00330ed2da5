package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"

	"nitro/emu"
	"nitro/emu/log"
	"nitro/emu/rpc"
	"nitro/hw"
	"nitro/hw/spu"
)

// playMain feeds a raw sample file to channel 0 of the extended engine.
func playMain(args Play) {
	data, err := os.ReadFile(args.SamplePath)
	checkf(err, "failed to read sample file")

	prog := &emu.SamplePlayer{
		Data:   data,
		Format: sampleFormat(args.Format),
		Rate:   args.Rate,
		Loop:   args.Loop,
	}
	runProgram(spu.Extended, prog, args.Port)
}

func demoMain(args Demo) {
	gen := spu.Extended
	if args.Legacy {
		gen = spu.Legacy
	}
	runProgram(gen, &emu.Demo{Gen: gen}, args.Port)
}

func sampleFormat(s string) spu.Format {
	switch s {
	case "pcm8":
		return spu.PCM8
	case "pcm16":
		return spu.PCM16
	case "adpcm":
		return spu.ADPCM
	}
	fatalf("unknown sample format %q", s)
	return 0
}

// runProgram wires the machine, the audio output and the optional debug RPC
// server, then runs the emulation and audio loops until the program finishes
// or one of them fails.
func runProgram(gen spu.Generation, prog emu.Program, port int) {
	var exitcode int
	sdl.Main(func() {
		cfg := emu.LoadConfigOrDefault()
		for _, name := range cfg.Log {
			mod, ok := log.ModuleByName(name)
			if !ok {
				fmt.Fprintf(os.Stderr, "config: unknown log module %q\n", name)
				continue
			}
			log.EnableDebugModules(mod.Mask())
		}

		emulator, err := emu.Launch(gen, prog, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
			exitcode = 1
			return
		}

		if port != 0 {
			server, err := rpc.NewServer(port, emulator)
			if err != nil {
				fmt.Fprintf(os.Stderr, "RPC error: %v\n", err)
				exitcode = 1
				return
			}
			defer server.Close()
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)

		if !cfg.Audio.Disable {
			audio, err := hw.NewAudio(emulator.M.SPU, cfg.Audio.Out)
			if err != nil {
				fmt.Fprintf(os.Stderr, "audio error: %v\n", err)
				exitcode = 1
				return
			}
			defer audio.Close()
			g.Go(func() error { return audio.Run(ctx) })
		}

		g.Go(func() error {
			// The audio loop only exits on cancellation, so cancel once
			// the program is done.
			defer cancel()
			return emulator.Run(ctx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			exitcode = 1
		}
	})
	os.Exit(exitcode)
}
