// Package geo provides the coordinate reference system and extent helpers used by export operations.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/wroge/wgs84"
)

// ErrUnsupportedCRS is returned when no transform between two coordinate reference systems is known.
var ErrUnsupportedCRS = errors.New("Unsupported coordinate reference system")

// TransformFunc projects a single point.
type TransformFunc func(orb.Point) orb.Point

var epsg = wgs84.EPSG()

var transforms = make(map[string]TransformFunc)
var transforms_mu = new(sync.RWMutex)

// RegisterTransform registers a custom transform from src to dst. Registered transforms take
// precedence over the built-in EPSG transforms.
func RegisterTransform(src host.CRS, dst host.CRS, fn TransformFunc) {

	transforms_mu.Lock()
	defer transforms_mu.Unlock()

	transforms[transformKey(src, dst)] = fn
}

// NewTransform returns a TransformFunc from src to dst.
func NewTransform(src host.CRS, dst host.CRS) (TransformFunc, error) {

	src = Normalize(src)
	dst = Normalize(dst)

	if src == dst {
		return identity, nil
	}

	transforms_mu.RLock()
	fn, ok := transforms[transformKey(src, dst)]
	transforms_mu.RUnlock()

	if ok {
		return fn, nil
	}

	switch {
	case src == host.WGS84 && dst == host.WebMercator:
		return TransformFunc(project.WGS84.ToMercator), nil
	case src == host.WebMercator && dst == host.WGS84:
		return TransformFunc(project.Mercator.ToWGS84), nil
	default:
		return epsgTransform(src, dst)
	}
}

func epsgTransform(src host.CRS, dst host.CRS) (TransformFunc, error) {

	src_code, src_ok := epsgCode(src)
	dst_code, dst_ok := epsgCode(dst)

	if !src_ok || !dst_ok {
		return nil, fmt.Errorf("%w (%s to %s)", ErrUnsupportedCRS, src, dst)
	}

	fn, err := epsg.SafeTransform(src_code, dst_code)

	if err != nil {
		return nil, fmt.Errorf("%w (%s to %s), %v", ErrUnsupportedCRS, src, dst, err)
	}

	return func(pt orb.Point) orb.Point {
		x, y, _ := fn(pt[0], pt[1], 0)
		return orb.Point{x, y}
	}, nil
}

// epsgCode returns the numeric code of an "EPSG:<code>" authority id.
func epsgCode(crs host.CRS) (int, bool) {

	auth, code, ok := strings.Cut(string(crs), ":")

	if !ok || !strings.EqualFold(auth, "EPSG") {
		return 0, false
	}

	i, err := strconv.Atoi(code)

	if err != nil {
		return 0, false
	}

	return i, true
}

// Normalize maps aliases of well-known coordinate reference systems to their canonical authority id.
func Normalize(crs host.CRS) host.CRS {

	switch strings.ToUpper(string(crs)) {
	case "EPSG:4326", "WGS84", "CRS84", "OGC:CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84":
		return host.WGS84
	case "EPSG:3857", "EPSG:900913", "EPSG:3785", "EPSG:102100":
		return host.WebMercator
	default:
		return crs
	}
}

// Geometry returns a copy of g transformed by fn.
func Geometry(g orb.Geometry, fn TransformFunc) orb.Geometry {

	if g == nil {
		return nil
	}

	return project.Geometry(orb.Clone(g), orb.Projection(fn))
}

func identity(pt orb.Point) orb.Point {
	return pt
}

func transformKey(src host.CRS, dst host.CRS) string {
	return fmt.Sprintf("%s>%s", Normalize(src), Normalize(dst))
}
