package core

// Row 是表格快照中的一行：列名 -> 值。
type Row = map[string]any

// Table 是一张表格快照。
type Table []Row

// Snapshot 是构建引擎所需的三张表：故事、用户、阅读历史。
// 由外部数据层（MongoDB / 文件）一次性加载，引擎不会修改它。
type Snapshot struct {
	Stories Table `json:"stories" yaml:"stories"`
	Users   Table `json:"users" yaml:"users"`
	History Table `json:"history" yaml:"history"`
}
