package vector

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/operations/clone"
	"gocloud.dev/blob"
)

// ImagesFolder is the prefix of exported attachments.
const ImagesFolder = "images"

type ExportImagesOptions struct {
	Bucket *blob.Bucket
	ACL    string
}

// ExportImages copies the files referenced by the external resource fields of layer into the "images" folder
// of opts.Bucket. Relative paths are resolved against the directory of the project file. Files that can not
// be read are skipped. It returns the keys of the copied files.
func ExportImages(ctx context.Context, p *host.Project, layer host.VectorLayer, opts *ExportImagesOptions) ([]string, error) {

	keys := make([]string, 0)

	for i := range layer.Fields() {

		if layer.EditorWidget(i) != host.WidgetExternalResource {
			continue
		}

		field_keys, err := exportFieldImages(ctx, p, layer, i, opts)

		if err != nil {
			return keys, err
		}

		keys = append(keys, field_keys...)
	}

	return keys, nil
}

func exportFieldImages(ctx context.Context, p *host.Project, layer host.VectorLayer, idx int, opts *ExportImagesOptions) ([]string, error) {

	logger := common.Logger().With("layer", layer.Name(), "field", layer.Fields()[idx].Name)
	wr_opts := common.WriterOptions("", opts.ACL)

	keys := make([]string, 0)

	req := &host.FeatureRequest{
		Attributes: []int{idx},
	}

	cb := func(f *host.Feature) error {

		if idx >= len(f.Attributes) {
			return nil
		}

		path, ok := f.Attributes[idx].(string)

		if !ok {
			return nil
		}

		root, rel_path := attachmentSource(p, path)

		rdr, err := common.NewDirectoryReader(ctx, root)

		if err != nil {
			logger.Debug("Failed to create reader, skipping", "path", path, "error", err)
			return nil
		}

		clone_opts := &clone.CloneAttachmentOptions{
			Source:        rdr,
			Target:        opts.Bucket,
			Path:          rel_path,
			TargetPath:    filepath.ToSlash(filepath.Join(ImagesFolder, common.ImageFileName(path))),
			Force:         true,
			WriterOptions: wr_opts,
		}

		key, err := clone.CloneAttachment(ctx, clone_opts)

		if err != nil {
			logger.Debug("Failed to copy attachment, skipping", "path", path, "error", err)
			return nil
		}

		keys = append(keys, key)
		return nil
	}

	err := layer.Features(ctx, req, cb)

	if err != nil {
		return keys, fmt.Errorf("Failed to iterate features, %w", err)
	}

	return keys, nil
}

// attachmentSource returns the directory an attachment is read from and its path relative to that directory.
func attachmentSource(p *host.Project, path string) (string, string) {

	if filepath.IsAbs(path) {
		return filepath.Dir(path), filepath.Base(path)
	}

	return filepath.Dir(p.FileName), path
}
