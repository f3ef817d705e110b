package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gompdf/htmlslice/internal/browser"
	"github.com/gompdf/htmlslice/internal/static"
	"github.com/gompdf/htmlslice/pkg/api"
)

// prepare builds the converter, input and backend for SOURCE. The caller
// closes the backend.
func prepare(ctx context.Context, cmd *cli.Command, log *zap.Logger) (*api.Converter, api.Input, api.Backend, error) {
	env := envFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return nil, api.Input{}, nil, errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	opts := env.Cfg.Options(log)
	in := env.Cfg.Input()
	for name, sel := range map[string]*string{"root": &in.Root, "header": &in.Header, "footer": &in.Footer} {
		if cmd.IsSet(name) {
			*sel = cmd.String(name)
		}
	}
	conv := api.NewWithOptions(opts)

	if cmd.Bool("snapshot") {
		b, err := static.Open(ctx, src, log)
		if err != nil {
			return nil, in, nil, err
		}
		return conv, in, b, nil
	}

	bo := browser.DefaultOptions()
	bo.Bin = opts.BrowserBin
	bo.NoSandbox = opts.NoSandbox
	bo.Timeout = opts.Timeout
	bo.ViewportWidth = opts.ViewportWidth
	bo.DeviceScale = opts.DeviceScale
	s, err := browser.Launch(ctx, bo, log)
	if err != nil {
		return nil, in, nil, err
	}
	if err := s.Open(ctx, src); err != nil {
		return nil, in, nil, multierr.Append(err, s.Close())
	}
	return conv, in, s, nil
}

func runExport(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := envFromContext(ctx)
	log := env.Log.Named("export")

	if cmd.IsSet("out") {
		env.Cfg.Output.Filename = cmd.String("out")
	}
	if cmd.IsSet("output-mode") {
		mode, err := api.ParseOutputMode(cmd.String("output-mode"))
		if err != nil {
			return err
		}
		env.Cfg.Output.Mode = string(mode)
	}
	if cmd.Bool("draw-bands") {
		env.Cfg.Document.DebugDrawBands = true
	}

	conv, in, backend, err := prepare(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, backend.Close())
	}()

	res, err := conv.Export(ctx, backend, in)
	if err != nil {
		return err
	}

	switch {
	case res.PDF != nil:
		_, err = os.Stdout.Write(res.PDF)
	case res.DataURI != "":
		_, err = fmt.Fprintln(os.Stdout, res.DataURI)
	default:
		log.Info("Document saved", zap.String("path", res.Path), zap.Int("pages", res.Pages))
	}
	if err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

func runBreaks(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := envFromContext(ctx).Log.Named("breaks")

	conv, in, backend, err := prepare(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, backend.Close())
	}()

	layout, err := conv.Paginate(ctx, backend, in)
	if err != nil {
		return err
	}
	return printLayout(os.Stdout, layout)
}

func printLayout(w io.Writer, layout *api.Layout) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ratio\t%.4f\n", layout.Ratio)
	fmt.Fprintln(tw, "page\tbreak\ttop\theight")
	for i, p := range layout.Pages {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\n", p.Index+1, layout.Breaks[i], p.Top, p.Height)
	}
	return tw.Flush()
}
