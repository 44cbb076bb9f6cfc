package project

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/sfomuseum/go-webmap-layers/host"
)

// gpkgTable is the metadata of a GeoPackage feature table.
type gpkgTable struct {
	Name         string
	GeomColumn   string
	GeometryType string
	CRS          host.CRS
}

// readGeoPackage reads every row of a GeoPackage feature table.
func readGeoPackage(ctx context.Context, path string, table string, declared []host.Field) ([]*host.Feature, []host.Field, *gpkgTable, error) {

	db, err := sql.Open("sqlite3", path)

	if err != nil {
		return nil, nil, nil, fmt.Errorf("Failed to open %s, %w", path, err)
	}

	defer db.Close()

	t, err := gpkgTableInfo(ctx, db, table)

	if err != nil {
		return nil, nil, nil, err
	}

	q := fmt.Sprintf("SELECT * FROM `%s`", strings.ReplaceAll(table, "`", ""))

	rows, err := db.QueryContext(ctx, q)

	if err != nil {
		return nil, nil, nil, fmt.Errorf("Failed to query %s, %w", table, err)
	}

	defer rows.Close()

	col_types, err := rows.ColumnTypes()

	if err != nil {
		return nil, nil, nil, fmt.Errorf("Failed to derive columns for %s, %w", table, err)
	}

	// index of each schema field in the result columns
	fields := declared
	field_cols := make([]int, 0)
	id_col := -1
	geom_col := -1

	for i, c := range col_types {

		name := c.Name()

		switch {
		case name == t.GeomColumn:
			geom_col = i
			continue
		case strings.EqualFold(name, "fid") && id_col == -1:
			id_col = i
			continue
		}

		if len(declared) == 0 {

			fields = append(fields, host.Field{
				Name:     name,
				TypeName: c.DatabaseTypeName(),
				Type:     fieldType(c.DatabaseTypeName()),
			})
		}
	}

	for _, f := range fields {

		idx := -1

		for i, c := range col_types {
			if c.Name() == f.Name {
				idx = i
				break
			}
		}

		field_cols = append(field_cols, idx)
	}

	features := make([]*host.Feature, 0)

	for rows.Next() {

		vals := make([]any, len(col_types))
		val_ptrs := make([]any, len(col_types))

		for i := range vals {
			val_ptrs[i] = &vals[i]
		}

		err := rows.Scan(val_ptrs...)

		if err != nil {
			return nil, nil, nil, fmt.Errorf("Failed to read row from %s, %w", table, err)
		}

		f := &host.Feature{
			ID:         int64(len(features) + 1),
			Attributes: make([]any, len(fields)),
		}

		if id_col != -1 {

			id, ok := vals[id_col].(int64)

			if ok {
				f.ID = id
			}
		}

		if geom_col != -1 && vals[geom_col] != nil {

			data, ok := vals[geom_col].([]byte)

			if !ok {
				return nil, nil, nil, fmt.Errorf("Unexpected type %T for geometry column", vals[geom_col])
			}

			g, err := decodeGeometry(data)

			if err != nil {
				return nil, nil, nil, fmt.Errorf("Failed to decode geometry for feature %d, %w", f.ID, err)
			}

			f.Geometry = g
		}

		for i, col := range field_cols {

			if col == -1 {
				f.Attributes[i] = host.Null{TypeName: fields[i].TypeName}
				continue
			}

			f.Attributes[i] = convertValue(vals[col], fields[i])
		}

		features = append(features, f)
	}

	err = rows.Err()

	if err != nil {
		return nil, nil, nil, fmt.Errorf("Failed to iterate rows for %s, %w", table, err)
	}

	return features, fields, t, nil
}

func gpkgTableInfo(ctx context.Context, db *sql.DB, table string) (*gpkgTable, error) {

	q := `SELECT gc.column_name, gc.geometry_type_name, srs.organization, srs.organization_coordsys_id
		FROM gpkg_geometry_columns gc
		LEFT JOIN gpkg_spatial_ref_sys srs ON gc.srs_id = srs.srs_id
		WHERE gc.table_name = ?`

	var geom_col, geom_type string
	var org sql.NullString
	var org_id sql.NullInt64

	err := db.QueryRowContext(ctx, q, table).Scan(&geom_col, &geom_type, &org, &org_id)

	if err != nil {
		return nil, fmt.Errorf("Failed to read geometry column for %s, %w", table, err)
	}

	t := &gpkgTable{
		Name:         table,
		GeomColumn:   geom_col,
		GeometryType: geom_type,
	}

	if org.Valid && org_id.Valid {
		t.CRS = host.CRS(fmt.Sprintf("%s:%d", strings.ToUpper(org.String), org_id.Int64))
	}

	return t, nil
}

// decodeGeometry decodes a GeoPackage binary geometry (a "GP" header, optional envelope and WKB).
func decodeGeometry(data []byte) (orb.Geometry, error) {

	if len(data) < 8 || data[0] != 'G' || data[1] != 'P' {
		return nil, fmt.Errorf("Invalid GeoPackage geometry header")
	}

	flags := data[3]

	var envelope_len int

	switch (flags >> 1) & 0x07 {
	case 0:
		envelope_len = 0
	case 1:
		envelope_len = 32
	case 2, 3:
		envelope_len = 48
	case 4:
		envelope_len = 64
	default:
		return nil, fmt.Errorf("Invalid envelope indicator")
	}

	// empty geometry flag
	if flags&0x10 != 0 {
		return nil, nil
	}

	offset := 8 + envelope_len

	if len(data) < offset {
		return nil, fmt.Errorf("Truncated GeoPackage geometry")
	}

	return wkb.Unmarshal(data[offset:])
}
