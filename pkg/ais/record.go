package ais

// Record is one decoded vessel observation: stable string keys mapping to
// uint64, int64, float64, or string values. A key is present only when
// its field decoded. Records are value objects; they are assembled once
// and never mutated afterwards.
type Record map[string]interface{}

// Stable field keys. Message fields first, envelope metadata last.
const (
	FieldMessageType       = "message_type"
	FieldRepeatIndicator   = "repeat_indicator"
	FieldMMSI              = "mmsi"
	FieldNavStatus         = "nav_status"
	FieldROT               = "rot"
	FieldSOG               = "sog"
	FieldPosAccuracy       = "pos_accuracy"
	FieldLon               = "lon"
	FieldLat               = "lat"
	FieldCOG               = "cog"
	FieldTrueHeading       = "true_heading"
	FieldTimestamp         = "timestamp"
	FieldManeuverIndicator = "maneuver_indicator"
	FieldRAIMFlag          = "raim_flag"
	FieldRadioStatus       = "radio_status"

	FieldAISVersion     = "ais_version"
	FieldIMONumber      = "imo_number"
	FieldCallsign       = "callsign"
	FieldVesselName     = "vessel_name"
	FieldShipType       = "ship_type"
	FieldDimToBow       = "dim_to_bow"
	FieldDimToStern     = "dim_to_stern"
	FieldDimToPort      = "dim_to_port"
	FieldDimToStarboard = "dim_to_starboard"
	FieldEPFDFixType    = "epfd_fix_type"
	FieldETAMonth       = "eta_month"
	FieldETADay         = "eta_day"
	FieldETAHour        = "eta_hour"
	FieldETAMinute      = "eta_minute"
	FieldETAStr         = "eta_str"
	FieldDraught        = "draught"
	FieldDestination    = "destination"
	FieldDTE            = "dte"

	FieldUTCYear   = "utc_year"
	FieldUTCMonth  = "utc_month"
	FieldUTCDay    = "utc_day"
	FieldUTCHour   = "utc_hour"
	FieldUTCMinute = "utc_minute"
	FieldUTCSecond = "utc_second"

	FieldCSUnit      = "cs_unit"
	FieldDisplayFlag = "display_flag"
	FieldDSCFlag     = "dsc_flag"
	FieldBandFlag    = "band_flag"
	FieldMsg22Flag   = "msg22_flag"
	FieldAssigned    = "assigned"
	FieldPartNumber  = "part_number"
	FieldVendorID    = "vendor_id"

	FieldTag            = "nmea_talker_id_type"
	FieldChannel        = "channel"
	FieldFragmentCount  = "fragment_count"
	FieldFragmentNumber = "fragment_number"
	FieldMessageID      = "message_id"
	FieldRawPayload     = "raw_nmea_payload"
	FieldNumFillBits    = "num_fill_bits"
)

func (r Record) Uint(key string) (uint64, bool) {
	v, ok := r[key].(uint64)
	return v, ok
}

func (r Record) Int(key string) (int64, bool) {
	v, ok := r[key].(int64)
	return v, ok
}

func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key].(float64)
	return v, ok
}

func (r Record) String(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// MessageType returns the message type, or 0 when the record somehow
// lacks one (assembled records always carry it).
func (r Record) MessageType() int {
	v, _ := r.Uint(FieldMessageType)
	return int(v)
}

// MMSI returns the Maritime Mobile Service Identity. Downstream
// consumers wanting the 9-digit form derive it with %09d.
func (r Record) MMSI() (uint32, bool) {
	v, ok := r.Uint(FieldMMSI)
	return uint32(v), ok
}
