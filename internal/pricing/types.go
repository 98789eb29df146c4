package pricing

// Users holds customer headcounts split by service scope.
type Users struct {
	Full      int `json:"full"`
	EmailOnly int `json:"emailOnly"`
}

// Infrastructure holds the device and asset counts collected during intake.
type Infrastructure struct {
	Workstations         int `json:"workstations"`
	Servers              int `json:"servers"`
	Printers             int `json:"printers"`
	PhoneExtensions      int `json:"phoneExtensions"`
	WifiAccessPoints     int `json:"wifiAccessPoints"`
	Firewalls            int `json:"firewalls"`
	Switches             int `json:"switches"`
	UPS                  int `json:"ups"`
	NAS                  int `json:"nas"`
	ManagedMobileDevices int `json:"managedMobileDevices"`
	DomainsUsedForEmail  int `json:"domainsUsedForEmail"`
}

// CustomerInfo is the immutable input snapshot every calculation derives from.
// The engine never mutates it.
type CustomerInfo struct {
	CompanyName    string         `json:"companyName"`
	Region         string         `json:"region"`
	ContractMonths int            `json:"contractMonths"`
	ContractType   string         `json:"contractType"`
	Users          Users          `json:"users"`
	Infrastructure Infrastructure `json:"infrastructure"`
}

// Factor1 values (informational for setup work).
const (
	FactorOnsite = "onsite"
	FactorRemote = "remote"
)

// Factor2 values (select the price rate).
const (
	FactorBusiness   = "business"
	FactorAfterHours = "afterhours"
)

// SetupService is a one-time service line. Hours are always derived from the
// customer snapshot via the hours table, never stored on the line itself.
type SetupService struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsActive   bool   `json:"isActive"`
	SkillLevel int    `json:"skillLevel"`
	Factor1    string `json:"factor1"`
	Factor2    string `json:"factor2"`
}

// HourBuckets splits monthly per-device hours across the four time/place
// combinations. Cost rates ignore the split; price rates do not.
type HourBuckets struct {
	OnsiteBusiness   float64 `json:"onsiteBusiness"`
	RemoteBusiness   float64 `json:"remoteBusiness"`
	OnsiteAfterHours float64 `json:"onsiteAfterHours"`
	RemoteAfterHours float64 `json:"remoteAfterHours"`
}

// Total returns the sum of all four buckets.
func (b HourBuckets) Total() float64 {
	return b.OnsiteBusiness + b.RemoteBusiness + b.OnsiteAfterHours + b.RemoteAfterHours
}

// Business returns the business-hours portion.
func (b HourBuckets) Business() float64 {
	return b.OnsiteBusiness + b.RemoteBusiness
}

// AfterHours returns the after-hours portion.
func (b HourBuckets) AfterHours() float64 {
	return b.OnsiteAfterHours + b.RemoteAfterHours
}

// DeviceHours holds the three service categories of a support device, each
// expressing hours per device per month.
type DeviceHours struct {
	Predictable HourBuckets `json:"predictable"`
	Reactive    HourBuckets `json:"reactive"`
	Emergency   HourBuckets `json:"emergency"`
}

// Categories returns the three hour categories in a fixed order.
func (h DeviceHours) Categories() []HourBuckets {
	return []HourBuckets{h.Predictable, h.Reactive, h.Emergency}
}

// SupportDevice is a recurring per-device labor line.
type SupportDevice struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	IsActive   bool        `json:"isActive"`
	Quantity   int         `json:"quantity"`
	SkillLevel int         `json:"skillLevel"`
	Hours      DeviceHours `json:"hours"`
}

// VariableCostTool is a monthly recurring per-unit tool or license.
// CostPerNodeUnit and CostPerCustomer are mutually exclusive; when both are
// set the per-unit cost wins.
type VariableCostTool struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	IsActive            bool     `json:"isActive"`
	NodesUnitsSupported int      `json:"nodesUnitsSupported"`
	CostPerNodeUnit     *float64 `json:"costPerNodeUnit,omitempty"`
	CostPerCustomer     *float64 `json:"costPerCustomer,omitempty"`
	PricePerNodeUnit    float64  `json:"pricePerNodeUnit"`
	ExtendedCost        float64  `json:"extendedCost"`
	ExtendedPrice       float64  `json:"extendedPrice"`
	Margin              float64  `json:"margin"`
}

// MonthlyLaborService is a recurring labor line billed by hours per month.
type MonthlyLaborService struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	IsActive      bool    `json:"isActive"`
	SkillLevel    int     `json:"skillLevel"`
	Factor1       string  `json:"factor1"`
	Factor2       string  `json:"factor2"`
	HoursPerMonth float64 `json:"hoursPerMonth"`
}

// IncidentBasedService is a labor line billed per expected incident.
type IncidentBasedService struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	IsActive         bool    `json:"isActive"`
	SkillLevel       int     `json:"skillLevel"`
	Factor1          string  `json:"factor1"`
	Factor2          string  `json:"factor2"`
	HoursPerIncident float64 `json:"hoursPerIncident"`
	QuantityPerMonth float64 `json:"quantityPerMonth"`
}

// OtherLaborData groups the two kinds of "other labor" inputs.
type OtherLaborData struct {
	MonthlyServices  []MonthlyLaborService  `json:"monthlyServices"`
	IncidentServices []IncidentBasedService `json:"incidentServices"`
}

// SetupServiceLine is a priced setup service.
type SetupServiceLine struct {
	SetupService
	Hours float64 `json:"hours"`
	Cost  float64 `json:"cost"`
	Price float64 `json:"price"`
}

// SupportDeviceLine is a priced support device.
type SupportDeviceLine struct {
	SupportDevice
	Cost  float64 `json:"cost"`
	Price float64 `json:"price"`
}

// MonthlyLaborLine is a priced monthly labor service.
type MonthlyLaborLine struct {
	MonthlyLaborService
	Cost  float64 `json:"cost"`
	Price float64 `json:"price"`
}

// IncidentLine is a priced incident-based service.
type IncidentLine struct {
	IncidentBasedService
	Cost  float64 `json:"cost"`
	Price float64 `json:"price"`
}

// OtherLaborLines groups priced other-labor output.
type OtherLaborLines struct {
	MonthlyServices  []MonthlyLaborLine `json:"monthlyServices"`
	IncidentServices []IncidentLine     `json:"incidentServices"`
}

// Totals is the roll-up record of a quote calculation. MonthlyTotal never
// includes setup costs; DeferredSetupMonthly is carried separately so
// discount logic can treat it distinctly.
type Totals struct {
	SetupCosts           float64      `json:"setupCosts"`
	UpfrontPayment       float64      `json:"upfrontPayment"`
	DeferredSetupMonthly float64      `json:"deferredSetupMonthly"`
	ToolsSoftware        float64      `json:"toolsSoftware"`
	SupportLabor         float64      `json:"supportLabor"`
	OtherLabor           float64      `json:"otherLabor"`
	MonthlyTotal         float64      `json:"monthlyTotal"`
	ContractTotal        float64      `json:"contractTotal"`
	DiscountType         DiscountType `json:"discountType,omitempty"`
	DiscountValue        float64      `json:"discountValue,omitempty"`
	DiscountedTotal      *float64     `json:"discountedTotal,omitempty"`
}

// QuoteCalculation is the full engine output: the input echo with priced
// lines plus totals. It is always produced by a full recompute, never
// patched incrementally.
type QuoteCalculation struct {
	Customer        CustomerInfo        `json:"customerData"`
	SetupServices   []SetupServiceLine  `json:"setupServices"`
	MonthlyServices []VariableCostTool  `json:"monthlyServices"`
	SupportDevices  []SupportDeviceLine `json:"supportDevices"`
	OtherLabor      OtherLaborLines     `json:"otherLaborData"`
	Totals          Totals              `json:"totals"`
	EstimatedCost   float64             `json:"estimatedCost"`
	ProfitMargin    float64             `json:"profitMargin"`
}

// Input collects everything Calculate needs besides the rate tables.
type Input struct {
	Customer       CustomerInfo       `json:"customerData"`
	SetupServices  []SetupService     `json:"setupServices"`
	Tools          []VariableCostTool `json:"monthlyServices"`
	SupportDevices []SupportDevice    `json:"supportDevices"`
	OtherLabor     OtherLaborData     `json:"otherLaborData"`
	UpfrontPayment float64            `json:"upfrontPayment"`
}
