package coda

import "fmt"

// Format identifies a product's container type (spec.md §3). Only CDF and
// GRIB have a backend in this module; the other formats are named here but
// opening a product of those formats fails with UnsupportedProduct.
type Format int

const (
	FormatASCII Format = iota
	FormatBinary
	FormatXML
	FormatNetCDF
	FormatCDF
	FormatGRIB
	FormatHDF4
	FormatHDF5
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinary:
		return "binary"
	case FormatXML:
		return "xml"
	case FormatNetCDF:
		return "netcdf"
	case FormatCDF:
		return "cdf"
	case FormatGRIB:
		return "grib"
	case FormatHDF4:
		return "hdf4"
	case FormatHDF5:
		return "hdf5"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}
