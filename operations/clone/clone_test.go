package clone

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sfomuseum/go-webmap-layers/common"
	"gocloud.dev/blob/memblob"
)

func TestCloneAttachment(t *testing.T) {

	ctx := context.Background()

	root := t.TempDir()

	err := os.WriteFile(filepath.Join(root, "photo.jpg"), []byte("new"), 0644)

	if err != nil {
		t.Fatalf("Failed to write attachment, %v", err)
	}

	r, err := common.NewDirectoryReader(ctx, root)

	if err != nil {
		t.Fatalf("Failed to create reader, %v", err)
	}

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	err = bucket.WriteAll(ctx, "images/photo.jpg", []byte("old"), nil)

	if err != nil {
		t.Fatalf("Failed to write existing attachment, %v", err)
	}

	opts := &CloneAttachmentOptions{
		Source:     r,
		Target:     bucket,
		Path:       "photo.jpg",
		TargetPath: "images/photo.jpg",
	}

	key, err := CloneAttachment(ctx, opts)

	if err != nil {
		t.Fatalf("Failed to clone attachment, %v", err)
	}

	body, _ := bucket.ReadAll(ctx, key)

	if string(body) != "old" {
		t.Errorf("Expected existing attachment to be left alone, got %s", body)
	}

	opts.Force = true

	key, err = CloneAttachment(ctx, opts)

	if err != nil {
		t.Fatalf("Failed to clone attachment, %v", err)
	}

	body, _ = bucket.ReadAll(ctx, key)

	if string(body) != "new" {
		t.Errorf("Expected attachment to be overwritten, got %s", body)
	}
}

func TestCloneAttachmentCancelled(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	opts := &CloneAttachmentOptions{
		Target:     bucket,
		Path:       "photo.jpg",
		TargetPath: "images/photo.jpg",
		Force:      true,
	}

	key, err := CloneAttachment(ctx, opts)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	if key != "" {
		t.Errorf("Expected empty key, got %s", key)
	}
}
