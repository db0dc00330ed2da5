package emu

import (
	"context"
	"sync/atomic"
	"time"

	"nitro/emu/log"
	"nitro/hw/hwio"
	"nitro/hw/spu"
)

// RAMBase is where the sample RAM is mapped on the machine bus.
const RAMBase = 0x02000000

const ramSize = 1 << 20

// Machine is the small hardware rig the sound engine lives on: the SPU, a
// bus with its registers mapped, and a block of sample RAM. The SPU fetches
// through the bus, so anything mapped there is playable.
type Machine struct {
	SPU *spu.SPU
	Bus *hwio.Table
	RAM *hwio.Mem
}

func NewMachine(gen spu.Generation) *Machine {
	m := &Machine{
		Bus: hwio.NewTable("main"),
		RAM: &hwio.Mem{
			Name:  "ram",
			Data:  make([]uint8, ramSize),
			VSize: ramSize,
		},
	}
	m.Bus.MapMem(RAMBase, m.RAM)
	m.SPU = spu.New(gen, m.Bus)
	m.SPU.MapIO(m.Bus)
	return m
}

// Program drives the machine's registers over time, standing in for the CPU.
type Program interface {
	Init(m *Machine) error

	// Step runs once per 60 Hz frame, before the frame's samples are
	// produced. It returns true when the program is finished.
	Step(m *Machine, frame int) bool
}

// Emulator runs a Program against a Machine at the synthesis rate. It is
// the producer side of the SPU buffer exchange; pacing comes either from
// the exchange (when the audio consumer rate-limits us) or from a frame
// sleep when running unlimited or audioless.
type Emulator struct {
	M   *Machine
	cfg Config

	prog  Program
	paced bool

	// Accessed concurrently by the emulation loop and the RPC server.
	quit   atomic.Bool
	paused atomic.Bool
}

func Launch(gen spu.Generation, prog Program, cfg Config) (*Emulator, error) {
	m := NewMachine(gen)
	if prog != nil {
		if err := prog.Init(m); err != nil {
			return nil, err
		}
	}

	paced := !cfg.Audio.Disable && cfg.Audio.LimitRate
	m.SPU.SetRateLimit(paced)

	return &Emulator{
		M:     m,
		cfg:   cfg,
		prog:  prog,
		paced: paced,
	}, nil
}

const framesPerSecond = 60

func (e *Emulator) Run(ctx context.Context) error {
	ticksPerFrame := spu.SampleRate / framesPerSecond

	for frame := 0; !e.quit.Load(); frame++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if e.paused.Load() {
			time.Sleep(100 * time.Millisecond)
			frame--
			continue
		}

		start := time.Now()
		if e.prog != nil && e.prog.Step(e.M, frame) {
			break
		}
		for i := 0; i < ticksPerFrame; i++ {
			e.M.SPU.RunSample()
		}

		if !e.paced {
			if d := time.Second/framesPerSecond - time.Since(start); d > 0 {
				time.Sleep(d)
			}
		}
	}

	log.ModEmu.InfoZ("emulation loop exited").End()
	return nil
}

// SetPause, Stop and DumpState allow external control, typically through
// the RPC server.

func (e *Emulator) SetPause(pause bool) { e.paused.Store(pause) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) DumpState() []byte { return e.M.SPU.DumpState() }
