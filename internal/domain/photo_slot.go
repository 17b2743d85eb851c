package domain

import "strconv"

// PhotoRef 已入库照片引用（转码后 data URL + 原始文件标识）
// FileName 为空视为空槽位
type PhotoRef struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// IsEmpty 槽位是否未填充
func (p PhotoRef) IsEmpty() bool {
	return p.FileName == "" && p.URL == ""
}

// PhotoSlot 照片槽位：与记录 label 一一对应
// IdentityToken 默认取自 label 提取结果，可被编辑器独立修改
type PhotoSlot struct {
	Label         string   `json:"label"`
	IdentityToken string   `json:"identity_token"`
	Frontal       PhotoRef `json:"frontal"`
	Player        PhotoRef `json:"player"`
	IPConfig      PhotoRef `json:"ip_config"`
}

// PhotoFile 一次照片批量导入中的单个文件（短暂存在，分配后即丢弃）
// Name+Size 作为稳定标识，用于已消费文件去重
// URL 由转码协作方填充（data URL），分配时拷入槽位
type PhotoFile struct {
	Name string
	Size int64
	Data []byte
	URL  string
}

// Key 已消费文件集合的键
func (f PhotoFile) Key() string {
	return fileKey(f.Name, f.Size)
}

func fileKey(name string, size int64) string {
	// name 不做大小写折叠：同一物理文件重复投递时文件名逐字节一致
	return name + "|" + strconv.FormatInt(size, 10)
}
