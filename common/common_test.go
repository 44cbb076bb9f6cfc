package common

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"gocloud.dev/blob/memblob"
)

func TestSafeName(t *testing.T) {

	tests := map[string]string{
		"Airports (2024)":   "Airports2024",
		"roads_primary":     "roads_primary",
		"Zürich Stadtkreis": "ZrichStadtkreis",
		"???":               "",
	}

	for input, expected := range tests {

		name := SafeName(input)

		if name != expected {
			t.Errorf("Expected '%s' for '%s', got '%s'", expected, input, name)
		}
	}

	if ArtifactName("Airports (2024)", 3) != "Airports2024_3" {
		t.Errorf("Unexpected artifact name %s", ArtifactName("Airports (2024)", 3))
	}
}

func TestMinify(t *testing.T) {

	body := Minify([]byte(`{"a": "x y", "b":  1}`))

	if string(body) != `{"a":"x y","b":1}` {
		t.Errorf("Unexpected minified output %s", body)
	}

	body = Minify([]byte("{\n\t\"a\": \"say \\\"hi there\\\"\",\n\t\"b\": [1, 2]\n}"))

	if string(body) != `{"a":"say \"hi there\"","b":[1,2]}` {
		t.Errorf("Unexpected minified output %s", body)
	}
}

func TestImageFileName(t *testing.T) {

	tests := map[string]string{
		"photos/a.jpg":        "photos_a.jpg",
		`C:\photos\b.png `:    "C__photos_b.png",
		"/abs/path/to/c.jpeg": "_abs_path_to_c.jpeg",
	}

	for input, expected := range tests {

		name := ImageFileName(input)

		if name != expected {
			t.Errorf("Expected '%s' for '%s', got '%s'", expected, input, name)
		}
	}
}

func TestBucketHelpers(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	im := image.NewRGBA(image.Rect(0, 0, 16, 16))

	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			im.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 0, 255})
		}
	}

	var buf bytes.Buffer

	err := png.Encode(&buf, im)

	if err != nil {
		t.Fatalf("Failed to encode image, %v", err)
	}

	err = WriteBytes(ctx, bucket, "images/test.png", buf.Bytes(), WriterOptions("image/png", "public-read"))

	if err != nil {
		t.Fatalf("Failed to write image, %v", err)
	}

	fp, err := FingerprintFile(ctx, bucket, "images/test.png")

	if err != nil {
		t.Fatalf("Failed to fingerprint image, %v", err)
	}

	if len(fp) != 40 {
		t.Errorf("Unexpected fingerprint %s", fp)
	}

	hashes, err := ImageHashes(ctx, bucket, "images/test.png")

	if err != nil {
		t.Fatalf("Failed to hash image, %v", err)
	}

	if len(hashes) != 2 || hashes[0].Approach != "avg" || hashes[1].Approach != "diff" {
		t.Errorf("Unexpected image hashes %v", hashes)
	}
}
