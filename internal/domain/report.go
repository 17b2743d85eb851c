package domain

// Family 记录族（导入验收表的四类设备）
// screens/banners/turnomatic/welcomer 共用同一套导入/同步/照片流水线
type Family string

const (
	FamilyScreens    Family = "screens"
	FamilyBanners    Family = "banners"
	FamilyTurnomatic Family = "turnomatic"
	FamilyWelcomer   Family = "welcomer"
)

// Families 固定顺序（文档序列化与同步遍历都按此顺序）
var Families = []Family{FamilyScreens, FamilyBanners, FamilyTurnomatic, FamilyWelcomer}

// UnitRecord 单条验收记录
// 所有字段按字符串存储（来自 Excel 单元格），未映射/手工字段默认空串
type UnitRecord struct {
	Label string `json:"label"`

	// family-specific（按族的 FieldColumns 填充）
	Hostname   string `json:"hostname"`
	MAC        string `json:"mac"`
	Resolution string `json:"resolution"`
	Model      string `json:"model"`
	LinearSize string `json:"linear_size"`
	Section    string `json:"section"`
	ProbeCount string `json:"probe_count"`

	// 手工录入字段（导入不覆盖，编辑器维护）
	PatchPort     string `json:"patch_port"`
	SwitchPort    string `json:"switch_port"`
	ContractRef   string `json:"contract_ref"`
	ThermalScreen string `json:"thermal_screen"`
	ThermalPC     string `json:"thermal_pc"`
}

// Report as-built 报告文档（全量读写，无部分 patch）
// 文档独占所有记录族与照片槽位集合；编辑器不持有副本
type Report struct {
	ReportID    string `json:"report_id"`
	SiteName    string `json:"site_name"`
	ContractRef string `json:"contract_ref"`

	Records map[Family][]UnitRecord `json:"records"`
	Slots   map[Family][]PhotoSlot  `json:"slots"`
}

// NewReport 创建空文档（所有集合已初始化，避免 nil map 写入）
func NewReport(reportID, siteName, contractRef string) *Report {
	r := &Report{
		ReportID:    reportID,
		SiteName:    siteName,
		ContractRef: contractRef,
		Records:     make(map[Family][]UnitRecord, len(Families)),
		Slots:       make(map[Family][]PhotoSlot, len(Families)),
	}
	for _, f := range Families {
		r.Records[f] = []UnitRecord{}
		r.Slots[f] = []PhotoSlot{}
	}
	return r
}

// Clone 结构化深拷贝（copy-on-write：引擎只收发值，不共享切片）
func (r *Report) Clone() *Report {
	out := &Report{
		ReportID:    r.ReportID,
		SiteName:    r.SiteName,
		ContractRef: r.ContractRef,
		Records:     make(map[Family][]UnitRecord, len(r.Records)),
		Slots:       make(map[Family][]PhotoSlot, len(r.Slots)),
	}
	for f, recs := range r.Records {
		out.Records[f] = append([]UnitRecord(nil), recs...)
	}
	for f, slots := range r.Slots {
		out.Slots[f] = append([]PhotoSlot(nil), slots...)
	}
	return out
}

// Labels 某一记录族当前的 label 序列（保持记录顺序）
func (r *Report) Labels(f Family) []string {
	recs := r.Records[f]
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Label)
	}
	return out
}
