package gather

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/tidwall/gjson"
	"gocloud.dev/blob"
)

type GatherArtifactsResponse struct {
	Path        string              `json:"path"`
	Fingerprint string              `json:"fingerprint"`
	MimeType    string              `json:"mimetype"`
	ImageHashes []*common.ImageHash `json:"imagehashes,omitempty"`
	// Created is the EXIF creation time of JPEG images.
	Created string `json:"created,omitempty"`
	// Features is the number of features in a layer script.
	Features int64 `json:"features,omitempty"`
}

type GatherArtifactsCallbackFunc func(*GatherArtifactsResponse) error

type GatherArtifactsOptions struct {
	Callback   GatherArtifactsCallbackFunc
	HashImages bool
}

func GatherArtifacts(ctx context.Context, bucket *blob.Bucket, cb GatherArtifactsCallbackFunc) error {

	opts := &GatherArtifactsOptions{
		Callback:   cb,
		HashImages: true,
	}

	return GatherArtifactsWithOptions(ctx, bucket, opts)
}

// GatherArtifactsWithOptions crawls bucket and dispatches a response for each artifact to opts.Callback.
// Callbacks are invoked concurrently.
func GatherArtifactsWithOptions(ctx context.Context, bucket *blob.Bucket, opts *GatherArtifactsOptions) error {

	gather_ch := make(chan *GatherArtifactsResponse)

	done_ch := make(chan bool, 1)
	err_ch := make(chan error, 1)

	go func() {

		err := CrawlArtifacts(ctx, bucket, gather_ch, opts)

		if err != nil {
			err_ch <- err
			return
		}

		done_ch <- true
	}()

	logger := common.Logger()

	gathering := true
	wg := new(sync.WaitGroup)

	for gathering {
		select {

		case <-done_ch:
			gathering = false
		case err := <-err_ch:
			wg.Wait()
			return err
		case gather_rsp := <-gather_ch:

			wg.Add(1)

			go func(rsp *GatherArtifactsResponse) {

				defer wg.Done()

				err := opts.Callback(rsp)

				if err != nil {
					logger.Warn("Failed to process artifact", "path", rsp.Path, "error", err)
				}

			}(gather_rsp)
		}
	}

	wg.Wait()
	return nil
}

// Iterate through all the items stored in a blob.Bucket instance, generate a GatherArtifactsResponse for
// things with a known mimetype and dispatch that response to a user-defined channel.
func CrawlArtifacts(ctx context.Context, bucket *blob.Bucket, rsp_ch chan *GatherArtifactsResponse, opts *GatherArtifactsOptions) error {

	var list func(context.Context, *blob.Bucket, string) error

	list = func(ctx context.Context, b *blob.Bucket, prefix string) error {

		iter := b.List(&blob.ListOptions{
			Delimiter: "/",
			Prefix:    prefix,
		})

		for {

			select {
			case <-ctx.Done():
				return nil
			default:
				// pass
			}

			obj, err := iter.Next(ctx)

			if err == io.EOF {
				break
			}

			if err != nil {
				return fmt.Errorf("Failed to list %s, %w", prefix, err)
			}

			if obj.IsDir {

				err := list(ctx, b, obj.Key)

				if err != nil {
					return err
				}

				continue
			}

			rsp, err := GatherArtifactResponseWithPath(ctx, bucket, obj.Key, opts)

			if err != nil {
				return err
			}

			if rsp == nil {
				continue
			}

			rsp_ch <- rsp
		}

		return nil
	}

	return list(ctx, bucket, "")
}

func GatherArtifactResponseWithPath(ctx context.Context, bucket *blob.Bucket, path string, opts *GatherArtifactsOptions) (*GatherArtifactsResponse, error) {

	ext := filepath.Ext(path)

	t := mime.TypeByExtension(ext)

	if t == "" {
		return nil, nil
	}

	fp, err := common.FingerprintFile(ctx, bucket, path)

	if err != nil {
		return nil, err
	}

	rsp := &GatherArtifactsResponse{
		Path:        path,
		MimeType:    t,
		Fingerprint: fp,
	}

	logger := common.Logger().With("path", path)

	switch {
	case strings.HasPrefix(t, "image/"):

		if opts.HashImages {

			hashes, err := common.ImageHashes(ctx, bucket, path)

			if err != nil {
				// rasters that could not be resampled are published as copies of their intermediate file
				logger.Warn("Failed to hash image", "error", err)
			} else {
				rsp.ImageHashes = hashes
			}
		}

		if t == "image/jpeg" {

			created, err := exifCreated(ctx, bucket, path)

			if err != nil {
				logger.Debug("Failed to read EXIF creation time", "error", err)
			} else {
				rsp.Created = created
			}
		}

	case ext == ".js":

		count, err := featureCount(ctx, bucket, path)

		if err != nil {
			logger.Warn("Failed to count features", "error", err)
		} else {
			rsp.Features = count
		}
	}

	return rsp, nil
}

func exifCreated(ctx context.Context, bucket *blob.Bucket, path string) (string, error) {

	r, err := bucket.NewReader(ctx, path, nil)

	if err != nil {
		return "", fmt.Errorf("Failed to open %s, %w", path, err)
	}

	defer r.Close()

	x, err := exif.Decode(r)

	if err != nil {
		return "", fmt.Errorf("Failed to decode EXIF data, %w", err)
	}

	tm, err := x.DateTime()

	if err != nil {
		return "", fmt.Errorf("Failed to derive EXIF date time, %w", err)
	}

	return tm.Format(time.RFC3339), nil
}

// featureCount returns the number of features in a "var name = {GeoJSON}" layer script.
func featureCount(ctx context.Context, bucket *blob.Bucket, path string) (int64, error) {

	body, err := bucket.ReadAll(ctx, path)

	if err != nil {
		return 0, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	idx := bytes.IndexByte(body, '=')

	if idx == -1 {
		return 0, fmt.Errorf("%s is not a layer script", path)
	}

	doc := body[idx+1:]

	if !gjson.ValidBytes(doc) {
		return 0, fmt.Errorf("%s does not contain a valid GeoJSON document", path)
	}

	return gjson.GetBytes(doc, "features.#").Int(), nil
}
