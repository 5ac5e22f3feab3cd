// Package grib implements the GRIB-1/GRIB-2 backend (spec.md §4.10, C10):
// multi-message recognition, Sections 0-8 parsing, and simple-packing
// value decode into a dynamic tree of scalars gated by an optional
// bitmap.
//
// Grounded on original_source/libcoda/coda-grib.c. A GRIB product is zero
// or more independently-encoded messages concatenated in one file,
// optionally separated by filler bytes; this mirrors the original's
// find-next-"GRIB"-signature scanning loop in read_file.
package grib

import (
	"bytes"

	"github.com/stcorp/coda-go/bitio"
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/internal/colog"
	"github.com/stcorp/coda-go/types"
)

var sigGRIB = []byte("GRIB")
var sigEnd = []byte("7777")

// Open scans src for GRIB messages and returns the static array type and
// dynamic array node for the product root: one heterogeneous element per
// message (messages can have unrelated structure and element counts, so
// the array carries explicit per-element nodes rather than a shared
// element-template — see dynamic.Array.Elements).
func Open(src *bitio.Source, log *colog.Helper) (*types.Array, *dynamic.Array, error) {
	offset := int64(0)
	size := src.Size()

	var messageTypes []types.Type
	var messageNodes []dynamic.Node

	for offset+4 <= size {
		window, err := src.Slice(offset, min64(4, size-offset))
		if err != nil {
			return nil, nil, err
		}
		if !bytes.Equal(window, sigGRIB) {
			offset++
			continue
		}

		editionByte, err := src.Slice(offset+7, 1)
		if err != nil {
			return nil, nil, err
		}
		edition := editionByte[0]

		var msgType types.Type
		var msgNode dynamic.Node
		var msgSize int64

		switch edition {
		case 1:
			hdr, err := src.Slice(offset+4, 3)
			if err != nil {
				return nil, nil, err
			}
			msgSize = int64(hdr[0])<<16 | int64(hdr[1])<<8 | int64(hdr[2])
			msgType, msgNode, err = readGRIB1Message(src, offset+8)
			if err != nil {
				return nil, nil, err
			}
		case 2:
			sizeBuf, err := src.Slice(offset+8, 8)
			if err != nil {
				return nil, nil, err
			}
			msgSize = 0
			for _, b := range sizeBuf {
				msgSize = msgSize<<8 | int64(b)
			}
			msgType, msgNode, err = readGRIB2Message(src, offset+16)
			if err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, errs.New(errs.UnsupportedProduct, "grib: unsupported edition %d at offset %d", edition, offset)
		}

		if msgSize <= 0 {
			return nil, nil, errs.New(errs.InvalidFormat, "grib: invalid message size at offset %d", offset)
		}

		messageTypes = append(messageTypes, msgType)
		messageNodes = append(messageNodes, msgNode)
		offset += msgSize
	}

	if len(messageTypes) == 0 {
		return nil, nil, errs.New(errs.InvalidFormat, "grib: no GRIB messages found")
	}

	// The static element type is shared (a union-by-shape record would be
	// needed for a byte-exact merge of every message's fields); since
	// messages from one file share an edition and producer in practice,
	// the first message's type stands in as the array's declared element
	// type, matching how the cursor only ever consults per-element static
	// types through the node itself.
	staticArr := types.NewArray(messageTypes[0], types.OrderC, types.ConstDimension(int64(len(messageTypes))))
	dynArr := dynamic.NewArray(staticArr, int64(len(messageTypes)), 0, 0)
	dynArr.Elements = messageNodes

	return staticArr, dynArr, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

var _ = sigEnd
