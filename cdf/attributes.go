package cdf

import (
	"github.com/stcorp/coda-go/errs"
)

func (p *product) readADRChain(offset int64) error {
	for offset != 0 {
		_, rtype, err := readHeader(p.src, offset)
		if err != nil {
			return err
		}
		if rtype != rtADR {
			return errs.New(errs.InvalidFormat, "cdf: expected ADR, got record type %d", rtype)
		}
		next, err := readI64(p.src, offset+12)
		if err != nil {
			return err
		}
		agrEDRHead, err := readI64(p.src, offset+20)
		if err != nil {
			return err
		}
		scope, err := readI32(p.src, offset+28)
		if err != nil {
			return err
		}
		num, err := readI32(p.src, offset+32)
		if err != nil {
			return err
		}
		ngrEntries, err := readI32(p.src, offset+36)
		if err != nil {
			return err
		}
		azEDRHead, err := readI64(p.src, offset+48)
		if err != nil {
			return err
		}
		nzEntries, err := readI32(p.src, offset+56)
		if err != nil {
			return err
		}
		name, err := readFixedString(p.src, offset+68, 256)
		if err != nil {
			return err
		}

		aedrHead := agrEDRHead
		isGlobal := scope&1 != 0
		if isGlobal {
			if nzEntries != 0 {
				return errs.New(errs.InvalidFormat, "cdf: global attribute %q has non-zero NzEntries", name)
			}
		} else if ngrEntries == 0 {
			aedrHead = azEDRHead
		}

		if err := p.readAEDRChain(aedrHead, name, num, isGlobal); err != nil {
			return err
		}
		offset = next
	}
	return nil
}

func (p *product) readAEDRChain(offset int64, name string, varNum int32, isGlobal bool) error {
	for offset != 0 {
		_, rtype, err := readHeader(p.src, offset)
		if err != nil {
			return err
		}
		if rtype != rtAEDR && rtype != rtAzEDR {
			return errs.New(errs.InvalidFormat, "cdf: expected AEDR, got record type %d", rtype)
		}
		next, err := readI64(p.src, offset+12)
		if err != nil {
			return err
		}
		dataType, err := readI32(p.src, offset+24)
		if err != nil {
			return err
		}
		num, err := readI32(p.src, offset+28)
		if err != nil {
			return err
		}
		numElems, err := readI32(p.src, offset+32)
		if err != nil {
			return err
		}
		if dataType == 32 {
			return errs.New(errs.UnsupportedProduct, "cdf: EPOCH16 attribute data type is not supported")
		}

		entry, err := p.readAttributeValue(offset+56, dataType, numElems, name)
		if err != nil {
			return err
		}

		if rtype == rtAEDR && isGlobal {
			p.globalAttrs = append(p.globalAttrs, entry)
		} else {
			idx := num
			if rtype != rtAEDR {
				idx = varNum
			}
			if idx >= 0 && int(idx) < len(p.variables) {
				vname := p.variables[idx].name
				p.varAttrs[vname] = append(p.varAttrs[vname], entry)
			}
		}
		offset = next
	}
	return nil
}

func (p *product) readAttributeValue(offset int64, dataType, numElems int32, name string) (attrEntry, error) {
	entry := attrEntry{name: name, dataType: dataType, numElems: numElems, offset: offset}
	if dataType == 51 || dataType == 52 {
		s, err := readFixedString(p.src, offset, int64(numElems))
		if err != nil {
			return entry, err
		}
		entry.isString = true
		entry.value = s
		return entry, nil
	}
	_, readType, byteSize, _, err := dataTypeInfo(dataType, numElems)
	if err != nil {
		return entry, err
	}
	buf := make([]byte, byteSize)
	if err := p.src.ReadBytes(offset, buf); err != nil {
		return entry, err
	}
	entry.value = decodeInMemory(readType, p.endian, buf)
	return entry, nil
}
