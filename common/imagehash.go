package common

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/aaronland/go-image-tools/util"
	"github.com/corona10/goimagehash"
	"gocloud.dev/blob"
)

// ImageHash is the result of a perceptual image hashing operation.
type ImageHash struct {
	// String label describing the image hashing procedure used.
	Approach string `json:"approach"`
	// The hexidecimal hash of an image.
	Hash string `json:"hash"`
}

// ImageHashApproaches are the goimagehash procedures applied by ImageHashes.
var ImageHashApproaches = []string{
	"avg",
	"diff",
	// don't bother with "ext" since it appears to return the same string hash as "avg"
}

// ImageHashes decodes an image stored in a blob.Bucket instance and returns its perceptual hashes.
func ImageHashes(ctx context.Context, bucket *blob.Bucket, im_path string) ([]*ImageHash, error) {

	r, err := bucket.NewReader(ctx, im_path, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create reader for %s, %w", im_path, err)
	}

	defer r.Close()

	im, _, err := util.DecodeImageFromReader(r)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode image from %s, %w", im_path, err)
	}

	return ImageHashesForImage(ctx, im)
}

// ImageHashesForImage returns the perceptual hashes of im, one per approach, sorted by approach.
func ImageHashesForImage(ctx context.Context, im image.Image) ([]*ImageHash, error) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done_ch := make(chan bool)
	err_ch := make(chan error)
	rsp_ch := make(chan *ImageHash)

	for _, a := range ImageHashApproaches {

		go func(a string) {

			defer func() {
				done_ch <- true
			}()

			rsp, err := imageHash(ctx, im, a)

			if err != nil {
				err_ch <- err
				return
			}

			rsp_ch <- rsp
		}(a)
	}

	remaining := len(ImageHashApproaches)
	hashes := make([]*ImageHash, 0)

	var hash_err error

	for remaining > 0 {

		select {
		case <-done_ch:
			remaining -= 1
		case err := <-err_ch:
			hash_err = err
		case rsp := <-rsp_ch:
			if rsp != nil {
				hashes = append(hashes, rsp)
			}
		}
	}

	if hash_err != nil {
		return nil, hash_err
	}

	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Approach < hashes[j].Approach
	})

	return hashes, nil
}

func imageHash(ctx context.Context, im image.Image, approach string) (*ImageHash, error) {

	select {
	case <-ctx.Done():
		return nil, nil
	default:
		// pass
	}

	var h *goimagehash.ImageHash
	var err error

	switch approach {
	case "avg":
		h, err = goimagehash.AverageHash(im)
	case "diff":
		h, err = goimagehash.DifferenceHash(im)
	default:
		return nil, fmt.Errorf("Unknown approach '%s'", approach)
	}

	if err != nil {
		return nil, fmt.Errorf("Failed to process image hash appoach '%s', %w", approach, err)
	}

	rsp := &ImageHash{
		Approach: approach,
		Hash:     h.ToString(),
	}

	return rsp, nil
}
