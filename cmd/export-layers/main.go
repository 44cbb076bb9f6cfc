package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/nfnt/resize"
	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/operations/batch"
	"github.com/sfomuseum/go-webmap-layers/operations/gather"
	"github.com/sfomuseum/go-webmap-layers/operations/report"
	"github.com/sfomuseum/go-webmap-layers/operations/tmplayer"
	"github.com/sfomuseum/go-webmap-layers/project"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

func main() {

	project_path := flag.String("project", "", "The path to a TOML project description.")
	destination := flag.String("destination", "", "A valid gocloud.dev/blob URI where layers will be exported to.")
	scratch := flag.String("scratch", os.TempDir(), "The local directory intermediate files are written to.")
	precision := flag.String("precision", geo.PrecisionMaintain, "The number of decimal places to round coordinates to, or \"maintain\".")
	minify := flag.Bool("minify", false, "Remove whitespace from layer scripts.")
	restrict := flag.Bool("restrict-to-extent", false, "Only export features within the extent selected by -extent-mode.")
	extent_mode := flag.String("extent-mode", tmplayer.ExtentCanvas, "The extent features are restricted to.")
	match_crs := flag.Bool("match-crs", false, "Do not reproject raster layers whose CRS matches the map canvas.")
	filters := flag.String("filters", "", "A comma-separated list of fields to derive filter domains for.")
	gdal_path := flag.String("gdal-path", "", "The directory containing the GDAL binaries. If empty they are looked up in PATH.")
	native := flag.Bool("native", false, "Resample raster layers without gdal_translate.")
	warp_retries := flag.Uint64("warp-retries", 0, "The number of times a failed reprojection is retried.")
	keep_scratch := flag.Bool("keep-scratch", false, "Do not remove intermediate files.")
	acl := flag.String("acl", "", "An optional AWS S3 ACL to assign to exported files.")
	report_uri := flag.String("report", "", "An optional whosonfirst/go-writer URI to write an export report to.")
	verbose := flag.Bool("verbose", false, "Enable verbose (debug) logging.")

	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}

	if *project_path == "" {
		log.Fatal("Missing -project flag")
	}

	if *destination == "" {
		log.Fatal("Missing -destination flag")
	}

	ctx := context.Background()

	p, cfg, err := project.LoadWithConfig(ctx, *project_path)

	if err != nil {
		log.Fatalf("Failed to load project, %v", err)
	}

	prec, err := geo.ParsePrecision(*precision)

	if err != nil {
		log.Fatalf("Invalid -precision flag, %v", err)
	}

	bucket, err := blob.OpenBucket(ctx, *destination)

	if err != nil {
		log.Fatalf("Failed to open destination, %v", err)
	}

	defer bucket.Close()

	runner := &gdal.ExecRunner{
		Path: *gdal_path,
	}

	warper := gdal.NewGDALWarper(runner)
	warper.Retries = *warp_retries

	var translator gdal.Translator

	if *native {
		translator = &gdal.NativeTranslator{Interpolation: resize.Bilinear}
	} else {
		translator = &gdal.GDALTranslator{Runner: runner}
	}

	layer_opts := make([]batch.LayerOptions, len(cfg.Layers))

	for i, l_cfg := range cfg.Layers {
		layer_opts[i] = batch.LayerOptions{
			EncodeJSON:    l_cfg.Export.JSON,
			Popup:         l_cfg.Export.Popup,
			ExportRelated: l_cfg.Export.Related,
		}
	}

	filter_fields := make([]string, 0)

	for _, f := range strings.Split(*filters, ",") {

		f = strings.TrimSpace(f)

		if f != "" {
			filter_fields = append(filter_fields, f)
		}
	}

	opts := &batch.Options{
		Bucket:           bucket,
		ScratchDir:       *scratch,
		Precision:        prec,
		Minify:           *minify,
		RestrictToExtent: *restrict,
		ExtentMode:       *extent_mode,
		MatchCRS:         *match_crs,
		Layers:           layer_opts,
		Feedback:         &host.LogFeedback{Logger: common.Logger()},
		Writer:           &project.TIFFWriter{},
		Warper:           warper,
		Translator:       translator,
		FilterFields:     filter_fields,
		KeepScratch:      *keep_scratch,
		ACL:              *acl,
	}

	results := batch.ExportLayers(ctx, p, opts)

	slog.Info("Export complete", "artifacts", len(results.Artifacts), "filters", len(results.Filters))

	if *report_uri == "" {
		return
	}

	artifacts := make([]*gather.GatherArtifactsResponse, 0)
	mu := new(sync.Mutex)

	cb := func(rsp *gather.GatherArtifactsResponse) error {
		mu.Lock()
		defer mu.Unlock()
		artifacts = append(artifacts, rsp)
		return nil
	}

	err = gather.GatherArtifacts(ctx, bucket, cb)

	if err != nil {
		log.Fatalf("Failed to gather artifacts, %v", err)
	}

	err = report.Write(ctx, *report_uri, report.DefaultReportPath, results, artifacts)

	if err != nil {
		log.Fatalf("Failed to write report, %v", err)
	}
}
