package common

/*

You might be thinking: I know, I'll make a common pool of buckets that all the
codes can use! It's okay, I thought that too. The problem is that if you call
the bucket's Close() method in your code (and you should call it _somewhere_)
then it will stop working (as expected) for all the other code that currently
has an instance of it. It's just not worth the logistics to bother with a pool
of buckets so create them as one-offs, as needed. (20191213/thisisaaronland)

*/

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"gocloud.dev/blob"
)

// WriterOptions returns blob.WriterOptions for artifacts. If acl is not empty it is applied to
// uploads made to S3 buckets (for example "public-read"); other drivers ignore it.
func WriterOptions(content_type string, acl string) *blob.WriterOptions {

	opts := &blob.WriterOptions{
		ContentType: content_type,
	}

	if acl == "" {
		return opts
	}

	opts.BeforeWrite = func(asFunc func(interface{}) bool) error {

		s3_req := &s3manager.UploadInput{}
		ok := asFunc(&s3_req)

		if ok {
			s3_req.ACL = aws.String(acl)
		}

		return nil
	}

	return opts
}

// CopyToBucket copies r to key in bucket. The partially written key is removed if the copy fails.
func CopyToBucket(ctx context.Context, bucket *blob.Bucket, key string, r io.Reader, opts *blob.WriterOptions) error {

	wr, err := bucket.NewWriter(ctx, key, opts)

	if err != nil {
		return fmt.Errorf("Failed to create writer for %s, %w", key, err)
	}

	_, err = io.Copy(wr, r)

	if err != nil {
		wr.Close()
		bucket.Delete(ctx, key)
		return fmt.Errorf("Failed to copy %s, %w", key, err)
	}

	err = wr.Close()

	if err != nil {
		return fmt.Errorf("Failed to close %s, %w", key, err)
	}

	return nil
}

// WriteBytes writes body to key in bucket.
func WriteBytes(ctx context.Context, bucket *blob.Bucket, key string, body []byte, opts *blob.WriterOptions) error {
	return CopyToBucket(ctx, bucket, key, bytes.NewReader(body), opts)
}
