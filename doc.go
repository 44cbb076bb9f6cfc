package layers

// This package defines common methods and operations for exporting the vector and raster layers of a GIS project as web map assets: GeoJSON layer scripts, PNG images and attachment images. Common operations include: Building temporary layers, exporting vector layers, exporting raster layers, copying attachments, gathering artifacts and writing export reports.
