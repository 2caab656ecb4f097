package bidpacket

// Packet is the final normalized output for one parsed bid packet
// document. All dates are YYYY-MM-DD, all times are 24-hour HH:MM;
// unresolved values serialize as explicit nulls.
type Packet struct {
	Metadata  Metadata   `json:"metadata"`
	Sequences []Sequence `json:"sequences"`
}

// Metadata describes the packet document itself.
type Metadata struct {
	Base           string  `json:"base"`  // 3-letter base station, or UNKNOWN
	Fleet          string  `json:"fleet"` // 3-digit fleet/equipment code, or UNKNOWN
	Month          string  `json:"month"` // 3-letter month abbreviation, or UNKNOWN
	Year           int     `json:"year"`
	BidPeriodStart *string `json:"bid_period_start"` // first day of the bid month, null when month unknown
	BidPeriodEnd   *string `json:"bid_period_end"`   // last day of the bid month, null when month unknown
	SourceDocument string  `json:"source_document"`
}

// Calendar lists the distinct calendar dates a sequence starts on within
// the bid month, sorted ascending.
type Calendar struct {
	StartDates []string `json:"start_dates"`
}

// Sequence is one normalized trip pattern.
type Sequence struct {
	SequenceNumber   string   `json:"sequence_number"`
	InstancesInMonth int      `json:"instances_in_month,omitempty"`
	Position         string   `json:"position"` // sorted space-joined position codes, or Unknown
	LengthDays       int      `json:"length_days"`
	Credit           *string  `json:"credit"`
	TotalDuty        *string  `json:"total_duty"`
	TotalBlock       *string  `json:"total_block"`
	Calendar         Calendar `json:"calendar"`
	Duties           []Duty   `json:"duties"`

	// Raw carries the block's source text for storage and search; it is
	// not part of the serialized packet.
	Raw string `json:"-"`
}

// Duty is one duty day of a sequence.
type Duty struct {
	DutyIndex int      `json:"duty_index"` // 1-based
	DayNumber string   `json:"day_number,omitempty"`
	Date      *string  `json:"date"`
	Report    *string  `json:"report"`
	Release   *string  `json:"release"`
	Layover   *Layover `json:"layover"`
	Summary   string   `json:"summary,omitempty"`
	Legs      []Leg    `json:"legs"`
}

// Leg is one flight segment of a duty day.
type Leg struct {
	LegIndex         int     `json:"leg_index"` // 1-based
	Date             *string `json:"date"`
	Equipment        string  `json:"equipment,omitempty"`
	FlightNumber     string  `json:"flight_number,omitempty"`
	DepartureStation string  `json:"departure_station,omitempty"`
	DepartureTime    *string `json:"departure_time"`
	Meal             string  `json:"meal,omitempty"`
	ArrivalStation   string  `json:"arrival_station,omitempty"`
	ArrivalTime      *string `json:"arrival_time"`
	Block            *string `json:"block"`
	Remarks          string  `json:"remarks,omitempty"`
}

// Layover describes the rest period closing a duty day.
type Layover struct {
	Station string  `json:"station,omitempty"`
	Hotel   string  `json:"hotel,omitempty"`
	Rest    *string `json:"rest"`
}
