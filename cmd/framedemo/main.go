// Command framedemo runs still images through the gpuframe pipeline.
//
//	framedemo -in a.png -out b.tiff -width 1280 -height 720 -gamma 1.2
//	framedemo -in a.png -with b.jpg -luma wipe.pgm -mix 0.4 -out mix.png
//
// Settings not given on the command line come from the configuration file
// (-config, or gpuframe.toml in the user configuration directory).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gogpu/gpuframe"
	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/backend/software"
	"github.com/gogpu/gpuframe/config"
	"github.com/gogpu/gpuframe/filter"
	"github.com/gogpu/gpuframe/luma"
)

type options struct {
	configPath  string
	backendName string
	in, with    string
	lumaPath    string
	out         string
	width       int
	height      int
	interp      string
	via         string
	crop        string
	brightness  float64
	gamma       float64
	grey        bool
	mix         float64
	softness    float64
	deinterlace string
	debug       bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "configuration file (default: user config dir)")
	flag.StringVar(&o.backendName, "backend", "", "graphics backend: software or native")
	flag.StringVar(&o.in, "in", "", "input image")
	flag.StringVar(&o.with, "with", "", "second image for a transition")
	flag.StringVar(&o.lumaPath, "luma", "", "luma map (PGM or image) for a wipe; dissolve when empty")
	flag.StringVar(&o.out, "out", "out.png", "output image (.png, .jpg, .bmp or .tiff)")
	flag.IntVar(&o.width, "width", 0, "output width (0 keeps the input size)")
	flag.IntVar(&o.height, "height", 0, "output height (0 keeps the input size)")
	flag.StringVar(&o.interp, "interp", "", "interpolation: nearest, bilinear or bicubic")
	flag.StringVar(&o.via, "via", "", "round-trip the input through a host format first: yuv422 or yuv420p")
	flag.StringVar(&o.crop, "crop", "", "pixels to crop as left,right,top,bottom")
	flag.Float64Var(&o.brightness, "brightness", 0, "brightness level in [-1, 1]")
	flag.Float64Var(&o.gamma, "gamma", 1, "gamma")
	flag.BoolVar(&o.grey, "grey", false, "convert to greyscale")
	flag.Float64Var(&o.mix, "mix", 0.5, "transition position")
	flag.Float64Var(&o.softness, "softness", 0, "luma wipe edge softness")
	flag.StringVar(&o.deinterlace, "deinterlace", "", "deinterlace the input: onefield or linearblend")
	flag.BoolVar(&o.debug, "debug", false, "verbose logging, including the library's")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()
	cfg, err := loadConfig(o.configPath)
	log := newLogger(cfg.Log.Level, o.debug)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if o.in == "" {
		log.Fatal("-in is required")
	}
	if err := run(log, cfg, o); err != nil {
		log.WithError(err).Fatal("Pipeline failed")
	}
}

// loadConfig reads the explicit path, or the per-user file when it exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = filepath.Join(config.Dir(), config.FileName)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	c, err := config.Load(path)
	if err != nil {
		return config.Default(), err
	}
	return c, nil
}

func newLogger(level string, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	if debug {
		lvl = logrus.DebugLevel
		gpuframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	log.SetLevel(lvl)
	return log
}

// openEnvironment honors the backend section of the configuration. The
// software backend is built directly so its worker count applies.
func openEnvironment(cfg *config.Config, name string) (*gpuframe.Environment, error) {
	if name == "" {
		name = cfg.Backend.Name
	}
	if name == backend.NameSoftware {
		return gpuframe.NewEnvironment(software.New(software.WithWorkers(cfg.Backend.Workers)), gpuframe.WithConfig(cfg))
	}
	return gpuframe.Open(name, gpuframe.WithConfig(cfg))
}

func run(log *logrus.Logger, cfg *config.Config, o options) error {
	if o.interp != "" {
		cfg.Rescale.Interp = o.interp
	}
	env, err := openEnvironment(cfg, o.backendName)
	if err != nil {
		return err
	}
	defer env.Close()

	log.WithFields(logrus.Fields{
		"backend":     env.BackendName(),
		"accelerated": env.Accelerated(),
		"float":       env.TextureFloat(),
	}).Info("Environment ready")

	a, err := loadFrame(o.in, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if o.via != "" {
		via, err := gpuframe.ParseFormat(o.via)
		if err != nil {
			return err
		}
		if err := env.ConvertImage(a, via, 0, 0); err != nil {
			return fmt.Errorf("convert to %s: %w", via, err)
		}
		log.WithField("format", via).Debug("Input converted")
	}

	if o.deinterlace != "" {
		a.ConsumerDeinterlace = true
		if err := env.Deinterlace(a, o.deinterlace); err != nil {
			return err
		}
	}

	filters, err := buildFilters(o, a)
	if err != nil {
		return err
	}
	if err := filter.Run(env, a, filters...); err != nil {
		return err
	}
	log.WithField("filters", len(filters)).Debug("Filters applied")

	if o.with != "" {
		if err := transition(log, env, a, o, cfg); err != nil {
			return err
		}
	}

	if err := saveFrame(env, a, o.out); err != nil {
		return err
	}

	s := env.Stats()
	log.WithFields(logrus.Fields{
		"out":        o.out,
		"size":       fmt.Sprintf("%dx%d", a.Width, a.Height),
		"textures":   s.Textures.Entries,
		"reuses":     s.Textures.Reuses,
		"shaders":    s.Shaders,
		"stagingKiB": s.StagingBytes / 1024,
	}).Info("Done")
	return nil
}

func buildFilters(o options, f *gpuframe.Frame) ([]filter.Filter, error) {
	var filters []filter.Filter
	if o.crop != "" {
		c, err := parseCrop(o.crop)
		if err != nil {
			return nil, err
		}
		filters = append(filters, c)
	}
	if o.width > 0 && o.height > 0 {
		filters = append(filters, filter.Resize{Width: o.width, Height: o.height})
	}
	if o.brightness != 0 {
		filters = append(filters, filter.Brightness{Level: o.brightness})
	}
	if o.gamma != 1 {
		filters = append(filters, filter.Gamma{Gamma: o.gamma})
	}
	if o.grey {
		filters = append(filters, filter.Greyscale{})
	}
	if f.Interp == "" {
		f.Interp = o.interp
	}
	return filters, nil
}

func transition(log *logrus.Logger, env *gpuframe.Environment, a *gpuframe.Frame, o options, cfg *config.Config) error {
	b, err := loadFrame(o.with, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := env.Rescale(b, a.Width, a.Height); err != nil {
		return err
	}

	t := &gpuframe.Transition{Softness: o.softness, Progressive: true}
	if o.lumaPath != "" {
		if t.Luma, err = luma.Load(o.lumaPath); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"map":  o.lumaPath,
			"size": fmt.Sprintf("%dx%d", t.Luma.Width, t.Luma.Height),
		}).Debug("Luma map loaded")
	}
	return t.Apply(env, a, b, o.mix, 0)
}
