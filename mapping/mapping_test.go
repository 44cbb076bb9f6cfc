package mapping

import (
	"testing"

	"github.com/sfomuseum/go-webmap-layers/host"
)

func TestGeometryType(t *testing.T) {

	tests := map[host.WkbType]string{
		host.WkbPoint25D:         "Point",
		host.WkbCircularStringZ:  "LineString",
		host.WkbMultiLineStringZ: "MultiLineString",
		host.WkbTriangleM:        "Polygon",
		host.WkbMultiPolygon25D:  "MultiPolygon",
		host.WkbMultiPointZM:     "MultiPoint",
	}

	for wkb, expected := range tests {

		str, ok := GeometryType(wkb)

		if !ok {
			t.Errorf("Expected mapping for %d", wkb)
			continue
		}

		if str != expected {
			t.Errorf("Expected %s for %d, got %s", expected, wkb, str)
		}
	}

	for _, wkb := range []host.WkbType{host.WkbNoGeometry, host.WkbUnknown, host.WkbCompoundCurve} {

		_, ok := GeometryType(wkb)

		if ok {
			t.Errorf("Did not expect mapping for %d", wkb)
		}
	}
}

func TestBlendMode(t *testing.T) {

	str, ok := BlendMode(host.BlendColorDodge)

	if !ok || str != "color-dodge" {
		t.Errorf("Unexpected blend mode %s", str)
	}

	_, ok = BlendMode(host.BlendOther)

	if ok {
		t.Errorf("Did not expect blend mode for BlendOther")
	}
}

func TestScaleToZoom(t *testing.T) {

	tests := map[float64]int{
		500:       19,
		1000:      18,
		12000:     15,
		499999:    10,
		300000000: 0,
	}

	for scale, expected := range tests {

		z := ScaleToZoom(scale)

		if z != expected {
			t.Errorf("Expected zoom %d for 1:%f, got %d", expected, scale, z)
		}
	}
}

func TestColors(t *testing.T) {

	hex, err := HexColor("255,0,0,255")

	if err != nil {
		t.Fatalf("Failed to parse component colour, %v", err)
	}

	if hex != "#ff0000" {
		t.Errorf("Unexpected hex colour %s", hex)
	}

	hex, err = HexColor("rgb(0,128,0)")

	if err != nil {
		t.Fatalf("Failed to parse rgb colour, %v", err)
	}

	if hex != "#008000" {
		t.Errorf("Unexpected hex colour %s", hex)
	}

	_, err = HexColor("not a colour")

	if err == nil {
		t.Errorf("Expected error parsing invalid colour")
	}
}
