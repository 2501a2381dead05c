// Command navbuild builds a navigation mesh from an OBJ file and writes the
// poly mesh, the detail mesh and optional debug images.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gorustyt/recastgo/common/message"
	"github.com/gorustyt/recastgo/common/rw"
	"github.com/gorustyt/recastgo/config"
	"github.com/gorustyt/recastgo/debug_utils"
	"github.com/gorustyt/recastgo/geom"
	"github.com/gorustyt/recastgo/logging"
	"github.com/gorustyt/recastgo/navbuild"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type options struct {
	config string
	mesh   string
	out    string
	schema bool
	images bool
	watch  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "YAML build settings (defaults when empty)")
	flag.StringVar(&opts.mesh, "mesh", "", "input OBJ mesh")
	flag.StringVar(&opts.out, "out", "", "output directory (overrides output.dir)")
	flag.BoolVar(&opts.schema, "schema", false, "print the config JSON schema and exit")
	flag.BoolVar(&opts.images, "images", false, "write BMP snapshots of the build stages")
	flag.BoolVar(&opts.watch, "watch", false, "rebuild when the mesh or config changes")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "navbuild:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.schema {
		data, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Println(string(data))
		return err
	}
	if opts.mesh == "" {
		flag.Usage()
		return errors.New("-mesh is required")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := buildOnce(ctx, logger, opts); err != nil {
		if !opts.watch {
			return err
		}
		logger.Error("build failed", zap.Error(err))
	}
	if !opts.watch {
		return nil
	}
	files := []string{opts.mesh}
	if opts.config != "" {
		files = append(files, opts.config)
	}
	logger.Info("watching for changes", zap.Strings("files", files))
	err = navbuild.Watch(ctx, logger, files, func() error { return buildOnce(ctx, logger, opts) })
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return nil, err
		}
	}
	if opts.out != "" {
		cfg.Output.Dir = opts.out
	}
	if opts.images {
		cfg.Output.Images = true
	}
	return cfg, nil
}

// buildOnce reloads the inputs so a watch rebuild sees edits to either file.
func buildOnce(ctx context.Context, logger *zap.Logger, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	mesh, err := geom.LoadObj(opts.mesh, 1.0)
	if err != nil {
		return err
	}
	g := geom.NewInputGeom(mesh)
	if err := navbuild.AddConfigVolumes(g, cfg); err != nil {
		return err
	}
	res, err := navbuild.New(cfg, logger).Build(ctx, g)
	if err != nil {
		return err
	}
	return writeOutputs(logger, cfg, res)
}

func writeOutputs(logger *zap.Logger, cfg *config.Config, res *navbuild.Result) error {
	dir := cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	writeFile := func(name string, fn func(w io.Writer) error) (err error) {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		if err = fn(f); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		logger.Debug("wrote output", zap.String("path", p))
		return nil
	}

	err := multierr.Combine(
		writeFile("navmesh.obj", func(w io.Writer) error { return debug_utils.DuDumpPolyMeshToObj(res.Mesh, w) }),
		writeFile("detail.obj", func(w io.Writer) error { return debug_utils.DuDumpPolyMeshDetailToObj(res.Detail, w) }),
		writeFile("navmesh.bin", func(w io.Writer) error {
			buf := rw.NewWriter()
			debug_utils.DuDumpPolyMesh(res.Mesh, buf)
			debug_utils.DuDumpPolyMeshDetail(res.Detail, buf)
			debug_utils.DuDumpContourSet(res.Contours, buf)
			_, err := buf.WriteTo(w)
			return err
		}),
		writeFile("navmesh.pb", func(w io.Writer) error {
			data, err := message.EncodeNavMesh(res.Mesh, res.Detail)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		}),
	)
	if err != nil || !cfg.Output.Images {
		return err
	}
	return writeImages(cfg, res, writeFile)
}

func writeImages(cfg *config.Config, res *navbuild.Result, writeFile func(string, func(io.Writer) error) error) error {
	palette, err := debug_utils.ParsePalette(cfg.AreaPalette())
	if err != nil {
		return err
	}
	rhf := res.Regions
	views := []struct {
		name string
		draw func(dd debug_utils.DuDebugDraw)
	}{
		{"areas.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawCompactHeightfieldSolid(dd, rhf) }},
		{"distance.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawCompactHeightfieldDistance(dd, rhf) }},
		{"regions.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawCompactHeightfieldRegions(dd, rhf) }},
		{"contours.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawContours(dd, res.Contours) }},
		{"polymesh.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawPolyMesh(dd, res.Mesh) }},
		{"detail.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawPolyMeshDetail(dd, res.Detail) }},
	}
	if res.Layers != nil {
		views = append(views, struct {
			name string
			draw func(dd debug_utils.DuDebugDraw)
		}{"layers.bmp", func(dd debug_utils.DuDebugDraw) { debug_utils.DuDebugDrawHeightfieldLayers(dd, res.Layers) }})
	}
	bmin, bmax := res.Config.Bmin, res.Config.Bmax
	for _, v := range views {
		v := v
		err = multierr.Append(err, writeFile(v.name, func(w io.Writer) error {
			return debug_utils.RenderBMP(w, bmin, bmax, res.Config.Cs, cfg.Output.ImageScale, palette, v.draw)
		}))
	}
	return err
}
