package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/sfomuseum/go-webmap-layers/operations/gather"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

func main() {

	hash_images := flag.Bool("hash-images", true, "Derive perceptual hashes for images.")

	flag.Parse()

	ctx := context.Background()

	cb := func(rsp *gather.GatherArtifactsResponse) error {

		enc, err := json.Marshal(rsp)

		if err != nil {
			return err
		}

		fmt.Println(string(enc))
		return nil
	}

	opts := &gather.GatherArtifactsOptions{
		Callback:   cb,
		HashImages: *hash_images,
	}

	for _, uri := range flag.Args() {

		log.Println(uri)

		bucket, err := blob.OpenBucket(ctx, uri)

		if err != nil {
			log.Fatal(err)
		}

		err = gather.GatherArtifactsWithOptions(ctx, bucket, opts)

		bucket.Close()

		if err != nil {
			log.Fatal(err)
		}
	}
}
