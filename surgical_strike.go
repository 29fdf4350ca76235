package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/mogaika/surgical_strike/arsenal"
	"github.com/mogaika/surgical_strike/config"
	"github.com/mogaika/surgical_strike/scriptlang"
	"github.com/mogaika/surgical_strike/status"
	"github.com/mogaika/surgical_strike/strike"
	"github.com/mogaika/surgical_strike/theater"
	"github.com/mogaika/surgical_strike/transform"
	"github.com/mogaika/surgical_strike/utils"
	"github.com/mogaika/surgical_strike/vfs"
	"github.com/mogaika/surgical_strike/web"
)

type options struct {
	configPath string
	output     string
	encoding   string
	assets     string
	addr       string
	maxDepth   int
	debug      bool
	dump       bool
}

// apply copies the flags given on the command line over cfg.
func (o *options) apply(cfg *config.Config, set map[string]bool) {
	if set["o"] {
		cfg.Output = o.output
	}
	if set["encoding"] {
		cfg.Encoding = o.encoding
	}
	if set["assets"] {
		cfg.AssetRoot = o.assets
	}
	if set["maxdepth"] {
		cfg.MaxDepth = o.maxDepth
	}
	if set["debug"] {
		cfg.Debug = o.debug
	}
	if set["i"] {
		cfg.Viewer.Addr = o.addr
		cfg.Viewer.Enabled = o.addr != ""
	}
}

func main() {
	var o options
	var listEncodings bool
	flag.StringVar(&o.configPath, "config", "", "Path to yaml config")
	flag.StringVar(&o.output, "o", config.DefaultOutput, "Output scene, .glb or .gltf")
	flag.StringVar(&o.encoding, "encoding", config.UTF8, "Script source encoding")
	flag.BoolVar(&listEncodings, "listencodings", false, "List supported script encodings")
	flag.IntVar(&o.maxDepth, "maxdepth", config.DefaultMaxDepth, "Maximum nested codeword depth, 0 - unlimited")
	flag.BoolVar(&o.debug, "debug", false, "Trace every command")
	flag.StringVar(&o.assets, "assets", "", "Directory with payloads and camouflages, script directory by default")
	flag.StringVar(&o.addr, "i", "", "Address of viewer server, empty - no viewer")
	flag.BoolVar(&o.dump, "dump", false, "Print the compiled script and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] script\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if listEncodings {
		for _, name := range config.ListEncodings() {
			fmt.Println(name)
		}
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			log.Fatalf("[surgical_strike] %v", err)
		}
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	o.apply(cfg, set)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[surgical_strike] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0), o.dump, os.Stdout); err != nil {
		log.Fatalf("[surgical_strike] %v", err)
	}
}

func compile(cfg *config.Config, scriptPath string) (*strike.Codewords, error) {
	if err := config.SetEncoding(cfg.Encoding); err != nil {
		return nil, err
	}

	dir := vfs.NewDirectoryDriver(filepath.Dir(scriptPath))
	f, err := vfs.DirectoryGetFile(dir, filepath.Base(scriptPath))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open script")
	}
	data, err := vfs.ReadFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read script")
	}
	if cm := config.GetEncoding(); cm != nil && cfg.Debug {
		log.Printf("[surgical_strike] Decoding %s from %v", scriptPath, cm)
	}
	if data, err = config.DecodeScript(data); err != nil {
		return nil, err
	}

	cw := strike.NewCodewords()
	if err := scriptlang.Compile(data, cw); err != nil {
		return nil, errors.Wrapf(err, "%s", scriptPath)
	}
	return cw, nil
}

type summary struct {
	Script    string
	Output    string
	Codewords []string
	Delivered int
	Arsenal   arsenal.Stats
}

// run reports any failure to status listeners before returning it.
func run(ctx context.Context, cfg *config.Config, scriptPath string, dump bool, out io.Writer) error {
	err := runScript(ctx, cfg, scriptPath, dump, out)
	if err != nil {
		status.Error("%v", err)
	}
	return err
}

func runScript(ctx context.Context, cfg *config.Config, scriptPath string, dump bool, out io.Writer) error {
	status.Progress(0, "Compiling %s", scriptPath)
	cw, err := compile(cfg, scriptPath)
	if err != nil {
		return err
	}
	if dump {
		_, err := io.WriteString(out, scriptlang.RenderScript(cw))
		return err
	}

	assetRoot := cfg.AssetRoot
	if assetRoot == "" {
		assetRoot = filepath.Dir(scriptPath)
	}

	eng := theater.NewEngine()
	eng.Debug = cfg.Debug
	arsn := arsenal.NewArsenal(eng, vfs.NewDirectoryDriver(assetRoot))
	arsn.Debug = cfg.Debug

	in := strike.NewInterpreter(eng, arsn, cw)
	in.MaxDepth = cfg.MaxDepth
	in.Debug = cfg.Debug
	if cfg.RollInRadians() {
		in.SetRotationUnit(transform.Radians)
	}
	if cfg.Debug {
		in.Trace = func(c *strike.Command, depth int) {
			log.Printf("[strike] %3d %s%s", c.Line, strings.Repeat("  ", depth), scriptlang.RenderCommand(c))
		}
	}

	status.Progress(0.25, "Executing %d codewords", len(cw.Names()))
	if err := in.Run(); err != nil {
		return errors.Wrapf(err, "%s", scriptPath)
	}

	status.Progress(0.75, "Writing %d targets to %s", in.Delivered(), cfg.Output)
	if err := eng.WriteScene(in.Theater(), cfg.Output); err != nil {
		return err
	}
	stats := arsn.Stats()
	if cfg.Debug {
		utils.LogDump(stats)
	}
	status.Info("Strike complete: %d targets, %d payloads, %d camouflages",
		in.Delivered(), stats.PayloadLoads, stats.CamouflageLoads)

	if !cfg.Viewer.Enabled {
		return nil
	}
	viewer := web.NewViewer(cfg.Viewer.Addr, eng)
	viewer.Summary = &summary{
		Script:    scriptPath,
		Output:    cfg.Output,
		Codewords: cw.Names(),
		Delivered: in.Delivered(),
		Arsenal:   stats,
	}
	return viewer.RunViewer(ctx, in.Theater())
}
