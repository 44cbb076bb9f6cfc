package clone

// copy an attachment referenced by a feature into the images folder of an export

import (
	"context"
	"fmt"

	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/whosonfirst/go-reader/v2"
	"gocloud.dev/blob"
)

type CloneAttachmentOptions struct {
	Source reader.Reader
	Target *blob.Bucket
	// Path is the path of the attachment relative to Source
	Path string
	// TargetPath is the key the attachment is written to in Target
	TargetPath    string
	Force         bool
	WriterOptions *blob.WriterOptions
}

// CloneAttachment copies opts.Path from opts.Source to opts.TargetPath in opts.Target. Unless opts.Force
// is true attachments that already exist in the target are left alone.
func CloneAttachment(ctx context.Context, opts *CloneAttachmentOptions) (string, error) {

	target_path := opts.TargetPath

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		// pass
	}

	if !opts.Force {

		exists, err := opts.Target.Exists(ctx, target_path)

		if err != nil {
			return target_path, fmt.Errorf("Failed to determine whether %s exists, %w", target_path, err)
		}

		if exists {
			return target_path, nil
		}
	}

	source_fh, err := opts.Source.Read(ctx, opts.Path)

	if err != nil {
		return target_path, fmt.Errorf("Failed to read %s, %w", opts.Path, err)
	}

	defer source_fh.Close()

	// this is where we might scale or convert an attachment before it is published

	err = common.CopyToBucket(ctx, opts.Target, target_path, source_fh, opts.WriterOptions)

	if err != nil {
		return target_path, err
	}

	return target_path, nil
}
