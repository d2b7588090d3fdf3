package ais

import "fmt"

// decoders maps a message type to its field extractor. Types 1, 2, and 3
// share the Class A position layout; the rest differ per ITU-R M.1371.
var decoders = map[int]func(*Buffer) (Record, error){
	1:  decodePositionClassA,
	2:  decodePositionClassA,
	3:  decodePositionClassA,
	4:  decodeBaseStation,
	5:  decodeStaticVoyage,
	18: decodePositionClassB,
	19: decodePositionClassBExt,
	24: decodeStaticDataReport,
}

// Decode turns a (reassembled) sentence into a record: armor decode,
// message-type dispatch, then envelope metadata merge.
func Decode(s *Sentence, maxPayloadChars int) (Record, error) {
	buf, err := DecodeArmor(s.Payload, s.FillBits, maxPayloadChars)
	if err != nil {
		return nil, err
	}
	if buf.Len() < 6 {
		return nil, newError(KindTruncatedPayload, "only %d bits, no message type", buf.Len())
	}

	mt, err := buf.Uint(0, 6)
	if err != nil {
		return nil, err
	}
	dec, ok := decoders[int(mt)]
	if !ok {
		return nil, newError(KindUnsupportedMsgType, "message type %d", mt)
	}

	rec, err := dec(buf)
	if err != nil {
		return nil, err
	}

	rec[FieldMessageType] = mt
	rec[FieldTag] = s.Tag
	if s.Channel != "" {
		rec[FieldChannel] = s.Channel
	}
	rec[FieldFragmentCount] = uint64(s.FragmentCount)
	rec[FieldFragmentNumber] = uint64(s.FragmentNumber)
	if s.GroupID != "" {
		rec[FieldMessageID] = s.GroupID
	}
	rec[FieldRawPayload] = s.Payload
	rec[FieldNumFillBits] = uint64(s.FillBits)
	return rec, nil
}

// reader populates a record from positional bit ranges. The first field
// that runs past the end of the buffer marks the reader short; that field
// and every later one stay absent instead of failing the whole record.
type reader struct {
	buf   *Buffer
	rec   Record
	short bool
}

func newReader(buf *Buffer) *reader {
	return &reader{buf: buf, rec: make(Record, 24)}
}

func (d *reader) uint(key string, start, width int) uint64 {
	if d.short {
		return 0
	}
	v, err := d.buf.Uint(start, width)
	if err != nil {
		d.short = true
		return 0
	}
	d.rec[key] = v
	return v
}

func (d *reader) int(key string, start, width int) int64 {
	if d.short {
		return 0
	}
	v, err := d.buf.Int(start, width)
	if err != nil {
		d.short = true
		return 0
	}
	d.rec[key] = v
	return v
}

// scaled reads an unsigned field and divides it, for deciknot and
// decidegree fields. Not-available sentinels are emitted scaled, the way
// the consumers expect them (e.g. sog 1023 -> 102.3).
func (d *reader) scaled(key string, start, width int, div float64) float64 {
	if d.short {
		return 0
	}
	v, err := d.buf.Uint(start, width)
	if err != nil {
		d.short = true
		return 0
	}
	f := float64(v) / div
	d.rec[key] = f
	return f
}

// coord reads a signed field and divides it, for lat/lon in 1/10000
// minutes (181 and 91 degrees mean not available).
func (d *reader) coord(key string, start, width int, div float64) float64 {
	if d.short {
		return 0
	}
	v, err := d.buf.Int(start, width)
	if err != nil {
		d.short = true
		return 0
	}
	f := float64(v) / div
	d.rec[key] = f
	return f
}

func (d *reader) str(key string, start, nchars int) string {
	if d.short {
		return ""
	}
	s, err := d.buf.Str6(start, nchars)
	if err != nil {
		d.short = true
		return ""
	}
	d.rec[key] = s
	return s
}

// finish emits the record provided the MMSI made it in; a payload too
// short even for that is rejected outright.
func (d *reader) finish() (Record, error) {
	if _, ok := d.rec[FieldMMSI]; !ok {
		return nil, newError(KindTruncatedPayload, "payload too short for mmsi")
	}
	return d.rec, nil
}

// Types 1, 2, 3: Class A position report.
func decodePositionClassA(buf *Buffer) (Record, error) {
	d := newReader(buf)
	d.uint(FieldRepeatIndicator, 6, 2)
	d.uint(FieldMMSI, 8, 30)
	d.uint(FieldNavStatus, 38, 4)
	d.int(FieldROT, 42, 8)
	d.scaled(FieldSOG, 50, 10, 10)
	d.uint(FieldPosAccuracy, 60, 1)
	d.coord(FieldLon, 61, 28, 600000)
	d.coord(FieldLat, 89, 27, 600000)
	d.scaled(FieldCOG, 116, 12, 10)
	d.uint(FieldTrueHeading, 128, 9)
	d.uint(FieldTimestamp, 137, 6)
	d.uint(FieldManeuverIndicator, 143, 2)
	d.uint(FieldRAIMFlag, 148, 1)
	d.uint(FieldRadioStatus, 149, 19)
	return d.finish()
}

// Type 4: base station report.
func decodeBaseStation(buf *Buffer) (Record, error) {
	d := newReader(buf)
	d.uint(FieldRepeatIndicator, 6, 2)
	d.uint(FieldMMSI, 8, 30)
	d.uint(FieldUTCYear, 38, 14)
	d.uint(FieldUTCMonth, 52, 4)
	d.uint(FieldUTCDay, 56, 5)
	d.uint(FieldUTCHour, 61, 5)
	d.uint(FieldUTCMinute, 66, 6)
	d.uint(FieldUTCSecond, 72, 6)
	d.uint(FieldPosAccuracy, 78, 1)
	d.coord(FieldLon, 79, 28, 600000)
	d.coord(FieldLat, 107, 27, 600000)
	d.uint(FieldEPFDFixType, 134, 4)
	d.uint(FieldRAIMFlag, 148, 1)
	d.uint(FieldRadioStatus, 149, 19)
	return d.finish()
}

// Type 5: static and voyage related data.
func decodeStaticVoyage(buf *Buffer) (Record, error) {
	d := newReader(buf)
	d.uint(FieldRepeatIndicator, 6, 2)
	d.uint(FieldMMSI, 8, 30)
	d.uint(FieldAISVersion, 38, 2)
	d.uint(FieldIMONumber, 40, 30)
	d.str(FieldCallsign, 70, 7)
	d.str(FieldVesselName, 112, 20)
	d.uint(FieldShipType, 232, 8)
	d.uint(FieldDimToBow, 240, 9)
	d.uint(FieldDimToStern, 249, 9)
	d.uint(FieldDimToPort, 258, 6)
	d.uint(FieldDimToStarboard, 264, 6)
	d.uint(FieldEPFDFixType, 270, 4)

	month := d.uint(FieldETAMonth, 274, 4)
	day := d.uint(FieldETADay, 278, 5)
	hour := d.uint(FieldETAHour, 283, 5)
	minute := d.uint(FieldETAMinute, 288, 6)
	if !d.short {
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 && hour <= 23 && minute <= 59 {
			d.rec[FieldETAStr] = fmt.Sprintf("%02d-%02d %02d:%02d UTC", month, day, hour, minute)
		} else {
			d.rec[FieldETAStr] = "N/A"
		}
	}

	d.scaled(FieldDraught, 294, 8, 10)
	d.str(FieldDestination, 302, 20)
	d.uint(FieldDTE, 422, 1)
	return d.finish()
}

// Type 18: standard Class B position report.
func decodePositionClassB(buf *Buffer) (Record, error) {
	d := newReader(buf)
	d.uint(FieldRepeatIndicator, 6, 2)
	d.uint(FieldMMSI, 8, 30)
	d.scaled(FieldSOG, 46, 10, 10)
	d.uint(FieldPosAccuracy, 56, 1)
	d.coord(FieldLon, 57, 28, 600000)
	d.coord(FieldLat, 85, 27, 600000)
	d.scaled(FieldCOG, 112, 12, 10)
	d.uint(FieldTrueHeading, 124, 9)
	d.uint(FieldTimestamp, 133, 6)
	d.uint(FieldCSUnit, 141, 1)
	d.uint(FieldDisplayFlag, 142, 1)
	d.uint(FieldDSCFlag, 143, 1)
	d.uint(FieldBandFlag, 144, 1)
	d.uint(FieldMsg22Flag, 145, 1)
	d.uint(FieldAssigned, 146, 1)
	d.uint(FieldRAIMFlag, 147, 1)
	d.uint(FieldRadioStatus, 148, 20)
	return d.finish()
}

// Type 19: extended Class B position report.
func decodePositionClassBExt(buf *Buffer) (Record, error) {
	d := newReader(buf)
	d.uint(FieldRepeatIndicator, 6, 2)
	d.uint(FieldMMSI, 8, 30)
	d.scaled(FieldSOG, 46, 10, 10)
	d.uint(FieldPosAccuracy, 56, 1)
	d.coord(FieldLon, 57, 28, 600000)
	d.coord(FieldLat, 85, 27, 600000)
	d.scaled(FieldCOG, 112, 12, 10)
	d.uint(FieldTrueHeading, 124, 9)
	d.uint(FieldTimestamp, 133, 6)
	d.str(FieldVesselName, 143, 20)
	d.uint(FieldShipType, 263, 8)
	d.uint(FieldDimToBow, 271, 9)
	d.uint(FieldDimToStern, 280, 9)
	d.uint(FieldDimToPort, 289, 6)
	d.uint(FieldDimToStarboard, 295, 6)
	d.uint(FieldEPFDFixType, 301, 4)
	d.uint(FieldRAIMFlag, 305, 1)
	d.uint(FieldDTE, 306, 1)
	d.uint(FieldAssigned, 307, 1)
	return d.finish()
}

// Type 24: static data report, part A (name) or part B (type, callsign,
// dimensions). Parts beyond B carry nothing we understand past the
// common header.
func decodeStaticDataReport(buf *Buffer) (Record, error) {
	d := newReader(buf)
	d.uint(FieldRepeatIndicator, 6, 2)
	d.uint(FieldMMSI, 8, 30)
	part := d.uint(FieldPartNumber, 38, 2)
	if !d.short {
		switch part {
		case 0:
			d.str(FieldVesselName, 40, 20)
		case 1:
			d.uint(FieldShipType, 40, 8)
			d.str(FieldVendorID, 48, 7)
			d.str(FieldCallsign, 90, 7)
			d.uint(FieldDimToBow, 132, 9)
			d.uint(FieldDimToStern, 141, 9)
			d.uint(FieldDimToPort, 150, 6)
			d.uint(FieldDimToStarboard, 156, 6)
		}
	}
	return d.finish()
}
