// Package report writes a JSON summary of an export: the exported layers, filter domains and artifacts.
package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/mapping"
	"github.com/sfomuseum/go-webmap-layers/operations/batch"
	"github.com/sfomuseum/go-webmap-layers/operations/gather"
	"github.com/tidwall/sjson"
	"github.com/whosonfirst/go-ioutil"
)

// DefaultReportPath is the path reports are written to, relative to the writer's root.
const DefaultReportPath = "export.json"

// Report builds the JSON report for results and the artifacts gathered from the export's destination.
// Artifacts are sorted by path.
func Report(results *batch.Results, artifacts []*gather.GatherArtifactsResponse) ([]byte, error) {

	body := []byte(`{"layers":[],"filters":[],"artifacts":[]}`)

	var err error

	for _, a := range results.Artifacts {

		if a.Kind == batch.KindImage {
			continue
		}

		layer := map[string]any{
			"name":     a.Layer,
			"index":    a.Index,
			"kind":     a.Kind,
			"key":      a.Key,
			"min_zoom": a.MinZoom,
			"max_zoom": a.MaxZoom,
		}

		if a.GeometryType != "" {

			layer["geometry_type"] = a.GeometryType

			mapbox_type, ok := mapping.MapboxLayerType(strings.TrimPrefix(a.GeometryType, "Multi"))

			if ok {
				layer["mapbox_type"] = mapbox_type
			}
		}

		if a.BlendMode != "" {
			layer["blend_mode"] = a.BlendMode
		}

		if a.Popup != "" {
			layer["popup"] = a.Popup
		}

		body, err = sjson.SetBytes(body, "layers.-1", layer)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign layer %s, %w", a.Key, err)
		}
	}

	for _, d := range results.Filters {

		body, err = sjson.SetBytes(body, "filters.-1", d)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign filter %s, %w", d.Name, err)
		}
	}

	sorted := make([]*gather.GatherArtifactsResponse, len(artifacts))
	copy(sorted, artifacts)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	for _, a := range sorted {

		body, err = sjson.SetBytes(body, "artifacts.-1", a)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign artifact %s, %w", a.Path, err)
		}
	}

	return body, nil
}

// Write builds the report for results and artifacts and writes it to path using the whosonfirst/go-writer
// writer for writer_uri.
func Write(ctx context.Context, writer_uri string, path string, results *batch.Results, artifacts []*gather.GatherArtifactsResponse) error {

	body, err := Report(results, artifacts)

	if err != nil {
		return err
	}

	wr, err := common.NewWriter(ctx, writer_uri)

	if err != nil {
		return err
	}

	rsc, err := ioutil.NewReadSeekCloser(bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("Failed to create ReadSeekCloser for report, %w", err)
	}

	_, err = wr.Write(ctx, path, rsc)

	if err != nil {
		return fmt.Errorf("Failed to write report to %s, %w", path, err)
	}

	return nil
}
