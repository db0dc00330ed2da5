package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nitro/emu/log"
)

type mode byte

const (
	playMode    mode = iota // Play a raw sample file
	demoMode                // Play the built-in PSG demo
	versionMode             // Show nitro version
)

type (
	CLI struct {
		Play    Play    `cmd:"" help:"Play a raw sample file through the extended engine."`
		Demo    Demo    `cmd:"" help:"Play a small PSG tune. (default command)" default:"true"`
		Version Version `cmd:"" help:"Show nitro version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Play struct {
		SamplePath string `arg:"" name:"/path/to/sample" help:"${sample_help}" required:"true" type:"existingfile"`

		Format string `name:"format" help:"Sample format: pcm8, pcm16 or adpcm." enum:"pcm8,pcm16,adpcm" default:"pcm16"`
		Rate   int    `name:"rate" help:"Sample rate in Hz." default:"22050"`
		Loop   bool   `name:"loop" help:"Loop the sample forever."`
		Port   int    `name:"port" hidden:"true"`
	}

	Demo struct {
		Legacy bool `name:"legacy" help:"Use the legacy four-channel generation."`
		Port   int  `name:"port" hidden:"true"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"sample_help": "Raw (headerless) sample file to feed to channel 0.",
	"log_help":    "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nitro"),
		kong.Description("Handheld sound hardware emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "version":
		cfg.mode = versionMode
	case "demo":
		cfg.mode = demoMode
	default:
		cfg.mode = playMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "play") || strings.HasPrefix(ctx.Command(), "demo") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}
	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}
